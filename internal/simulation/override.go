package simulation

import "sync"

// OverrideState holds manual mode.
//
// Enabling without values is legal: ticks are skipped until values arrive.
type OverrideState struct {
	mu         sync.RWMutex
	enabled    bool
	lastValues Values
}

// SetManual replaces the flag when enabled is non-nil and the values when
// values is non-nil. Each argument applies independently.
func (o *OverrideState) SetManual(values Values, enabled *bool) Override {
	o.mu.Lock()
	defer o.mu.Unlock()

	if enabled != nil {
		o.enabled = *enabled
	}
	if values != nil {
		o.lastValues = values.clone()
	}
	return o.snapshotLocked()
}

// Clear disables manual mode and forgets the last values.
func (o *OverrideState) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = false
	o.lastValues = nil
}

// Snapshot returns a copy of the current override.
func (o *OverrideState) Snapshot() Override {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

func (o *OverrideState) snapshotLocked() Override {
	return Override{
		Enabled:    o.enabled,
		LastValues: o.lastValues.clone(),
	}
}

package simulation

import (
	"math"
	"sync"
)

// SettingsStore holds the current simulation settings.
//
// Thread Safety: all methods are safe for concurrent use. Get returns a deep
// copy, so callers never observe a later update mid-read.
type SettingsStore struct {
	mu       sync.RWMutex
	settings Settings
}

// NewSettingsStore creates a store holding DefaultSettings.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: DefaultSettings()}
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// Update applies a partial change and returns the resulting settings.
//
// UpdateFrequencySeconds is rounded and clamped to [1,10]; NoiseLevel is
// clamped to [0,2]. Both must be finite. Ranges must name all four sensors
// with min < max.
// On any error, wrapping ErrInvalidSettings, nothing is modified.
func (s *SettingsStore) Update(u SettingsUpdate) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings.clone()

	if u.Ranges != nil {
		if err := u.Ranges.Validate(); err != nil {
			return s.settings.clone(), err
		}
		next.Ranges = u.Ranges.clone()
	}

	if u.UpdateFrequencySeconds != nil {
		f := *u.UpdateFrequencySeconds
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return s.settings.clone(), invalidf("updateFrequency must be a finite number")
		}
		next.UpdateFrequencySeconds = clampFrequency(f)
	}

	if u.NoiseLevel != nil {
		n := *u.NoiseLevel
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return s.settings.clone(), invalidf("noiseLevel must be a finite number")
		}
		next.NoiseLevel = math.Max(MinNoiseLevel, math.Min(MaxNoiseLevel, n))
	}

	s.settings = next
	return next.clone(), nil
}

// Reset restores DefaultSettings.
func (s *SettingsStore) Reset() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = DefaultSettings()
	return s.settings.clone()
}

func clampFrequency(f float64) int {
	f = math.Round(f)
	if f < MinUpdateFrequency {
		return MinUpdateFrequency
	}
	if f > MaxUpdateFrequency {
		return MaxUpdateFrequency
	}
	return int(f)
}

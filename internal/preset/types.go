package preset

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// MaxNameLength is the longest accepted preset name.
const MaxNameLength = 64

// Preset is a named set of simulation settings.
type Preset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Ranges      simulation.Ranges `json:"ranges"`

	// Optional; nil leaves the engine's value unchanged on apply.
	UpdateFrequencySeconds *float64 `json:"updateFrequency,omitempty"`
	NoiseLevel             *float64 `json:"noiseLevel,omitempty"`

	BuiltIn   bool      `json:"builtIn"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Validate checks the name and every range. Frequency and noise are
// clamped by the engine, so only finiteness is checked here.
func (p *Preset) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, MaxNameLength)
	}
	if err := p.Ranges.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if p.UpdateFrequencySeconds != nil && !finite(*p.UpdateFrequencySeconds) {
		return fmt.Errorf("%w: updateFrequency must be a finite number", ErrInvalid)
	}
	if p.NoiseLevel != nil && !finite(*p.NoiseLevel) {
		return fmt.Errorf("%w: noiseLevel must be a finite number", ErrInvalid)
	}
	return nil
}

// Update returns the settings change applying this preset makes.
func (p *Preset) Update() simulation.SettingsUpdate {
	u := simulation.SettingsUpdate{Ranges: cloneRanges(p.Ranges)}
	if p.UpdateFrequencySeconds != nil {
		v := *p.UpdateFrequencySeconds
		u.UpdateFrequencySeconds = &v
	}
	if p.NoiseLevel != nil {
		v := *p.NoiseLevel
		u.NoiseLevel = &v
	}
	return u
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func cloneRanges(r simulation.Ranges) simulation.Ranges {
	out := make(simulation.Ranges, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

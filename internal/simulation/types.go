package simulation

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// SensorKind identifies one simulated sensor.
type SensorKind string

// Simulated sensor kinds.
const (
	Temperature SensorKind = "temperature"
	Humidity    SensorKind = "humidity"
	Pressure    SensorKind = "pressure"
	Light       SensorKind = "light"
)

// sensorOrder is the fixed generation order for a tick.
var sensorOrder = [...]SensorKind{Temperature, Humidity, Pressure, Light}

// Sensors returns every sensor kind in generation order.
func Sensors() []SensorKind {
	out := make([]SensorKind, len(sensorOrder))
	copy(out, sensorOrder[:])
	return out
}

// ParseSensorKind converts a wire name into a SensorKind.
func ParseSensorKind(s string) (SensorKind, error) {
	for _, k := range sensorOrder {
		if string(k) == s {
			return k, nil
		}
	}
	return "", invalidf("unknown sensor %q", s)
}

// IsValid reports whether k is one of the simulated sensor kinds.
func (k SensorKind) IsValid() bool {
	_, err := ParseSensorKind(string(k))
	return err == nil
}

// Unit returns the display unit for the sensor kind.
func (k SensorKind) Unit() string {
	switch k {
	case Temperature:
		return "°C"
	case Humidity:
		return "%"
	case Pressure:
		return "hPa"
	case Light:
		return "lux"
	default:
		return ""
	}
}

// SensorRange is the closed interval a sensor's base value is drawn from.
type SensorRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks min < max with both bounds finite.
func (r SensorRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return invalidf("range bounds must be finite numbers")
	}
	if r.Min >= r.Max {
		return invalidf("min (%g) must be less than max (%g)", r.Min, r.Max)
	}
	return nil
}

// Ranges maps each sensor to its range.
type Ranges map[SensorKind]SensorRange

// Validate requires exactly the four sensor kinds, each with a valid range.
func (r Ranges) Validate() error {
	for k, rng := range r {
		if !k.IsValid() {
			return invalidf("unknown sensor %q", k)
		}
		if err := rng.Validate(); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	for _, k := range sensorOrder {
		if _, ok := r[k]; !ok {
			return invalidf("range for %s is required", k)
		}
	}
	return nil
}

func (r Ranges) clone() Ranges {
	if r == nil {
		return nil
	}
	out := make(Ranges, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Bounds for the clamped settings fields.
const (
	MinUpdateFrequency = 1
	MaxUpdateFrequency = 10
	MinNoiseLevel      = 0.0
	MaxNoiseLevel      = 2.0
)

// Settings is the full simulation configuration.
type Settings struct {
	Ranges                 Ranges  `json:"ranges"`
	UpdateFrequencySeconds int     `json:"updateFrequency"`
	NoiseLevel             float64 `json:"noiseLevel"`
}

// DefaultSettings returns the compiled-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Ranges: Ranges{
			Temperature: {Min: 20, Max: 30},
			Humidity:    {Min: 30, Max: 70},
			Pressure:    {Min: 990, Max: 1010},
			Light:       {Min: 200, Max: 1000},
		},
		UpdateFrequencySeconds: 3,
		NoiseLevel:             1.0,
	}
}

// Interval returns the tick period.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.UpdateFrequencySeconds) * time.Second
}

func (s Settings) clone() Settings {
	s.Ranges = s.Ranges.clone()
	return s
}

// SettingsUpdate is a partial settings change. Nil fields are left unchanged.
//
// Ranges, when present, must be a full map of all four sensors.
type SettingsUpdate struct {
	Ranges                 Ranges   `json:"ranges,omitempty"`
	UpdateFrequencySeconds *float64 `json:"updateFrequency,omitempty"`
	NoiseLevel             *float64 `json:"noiseLevel,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u SettingsUpdate) IsEmpty() bool {
	return u.Ranges == nil && u.UpdateFrequencySeconds == nil && u.NoiseLevel == nil
}

// Values holds one value per sensor. Manual values may cover a subset.
type Values map[SensorKind]float64

// Validate rejects unknown sensor kinds and non-finite numbers.
// Ranges are deliberately not checked: manual values may lie outside them.
func (v Values) Validate() error {
	for k, x := range v {
		if !k.IsValid() {
			return invalidf("unknown sensor %q", k)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return invalidf("%s value must be a finite number", k)
		}
	}
	return nil
}

func (v Values) clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Mode is the source of a reading.
type Mode string

// Reading sources.
const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

// timestampLayout is ISO-8601 with millisecond precision, always UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reading is one published sensor snapshot.
//
// It marshals flat:
//
//	{"temperature":24.1,"humidity":51.3,"pressure":1001.2,"light":640.5,"timestamp":"2026-01-02T10:00:00.000Z"}
type Reading struct {
	Values    Values
	Timestamp time.Time
	Mode      Mode
}

// MarshalJSON implements json.Marshaler.
func (r Reading) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		out[string(k)] = v
	}
	out["timestamp"] = r.Timestamp.UTC().Format(timestampLayout)
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	values := make(Values, len(raw))
	for key, msg := range raw {
		if key == "timestamp" {
			var ts string
			if err := json.Unmarshal(msg, &ts); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			t, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			r.Timestamp = t
			continue
		}
		kind, err := ParseSensorKind(key)
		if err != nil {
			return err
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		values[kind] = v
	}
	r.Values = values
	return nil
}

// Override is a snapshot of manual mode.
type Override struct {
	Enabled    bool   `json:"enabled"`
	LastValues Values `json:"lastValues"`
}

// Status is a point-in-time view of an engine.
type Status struct {
	Running          bool     `json:"running"`
	Settings         Settings `json:"settings"`
	ManualOverride   bool     `json:"manualOverride"`
	LastManualValues Values   `json:"lastManualValues"`
}

// State returns "running" or "stopped".
func (s Status) State() string {
	if s.Running {
		return "running"
	}
	return "stopped"
}

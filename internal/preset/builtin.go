package preset

import (
	"strings"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Built-in preset IDs.
const (
	Normal    = "normal"
	HotDay    = "hot-day"
	RainyDay  = "rainy-day"
	NightTime = "night-time"
)

var builtins = map[string]Preset{
	Normal: {
		ID:          Normal,
		Name:        "Normal",
		Description: "Mild indoor conditions",
		Ranges: simulation.Ranges{
			simulation.Temperature: {Min: 20, Max: 25},
			simulation.Humidity:    {Min: 40, Max: 60},
			simulation.Pressure:    {Min: 1000, Max: 1010},
			simulation.Light:       {Min: 400, Max: 600},
		},
	},
	HotDay: {
		ID:          HotDay,
		Name:        "Hot Day",
		Description: "Hot, dry and bright",
		Ranges: simulation.Ranges{
			simulation.Temperature: {Min: 30, Max: 35},
			simulation.Humidity:    {Min: 20, Max: 30},
			simulation.Pressure:    {Min: 990, Max: 1000},
			simulation.Light:       {Min: 800, Max: 1000},
		},
	},
	RainyDay: {
		ID:          RainyDay,
		Name:        "Rainy Day",
		Description: "Cool, humid and overcast",
		Ranges: simulation.Ranges{
			simulation.Temperature: {Min: 15, Max: 20},
			simulation.Humidity:    {Min: 70, Max: 90},
			simulation.Pressure:    {Min: 980, Max: 990},
			simulation.Light:       {Min: 100, Max: 300},
		},
	},
	NightTime: {
		ID:          NightTime,
		Name:        "Night Time",
		Description: "Cold and dark",
		Ranges: simulation.Ranges{
			simulation.Temperature: {Min: 10, Max: 18},
			simulation.Humidity:    {Min: 50, Max: 70},
			simulation.Pressure:    {Min: 1000, Max: 1010},
			simulation.Light:       {Min: 0, Max: 50},
		},
	},
}

// builtinOrder is the display order of built-in presets.
var builtinOrder = []string{Normal, HotDay, RainyDay, NightTime}

// BuiltIn returns the built-in preset with the given ID.
func BuiltIn(id string) (Preset, bool) {
	p, ok := builtins[id]
	if !ok {
		return Preset{}, false
	}
	p.Ranges = cloneRanges(p.Ranges)
	p.BuiltIn = true
	return p, true
}

// BuiltIns returns every built-in preset in display order.
func BuiltIns() []Preset {
	out := make([]Preset, 0, len(builtinOrder))
	for _, id := range builtinOrder {
		p, _ := BuiltIn(id)
		out = append(out, p)
	}
	return out
}

// isReservedName reports whether name collides with a built-in preset's
// ID or display name, ignoring case.
func isReservedName(name string) bool {
	for id, p := range builtins {
		if strings.EqualFold(name, id) || strings.EqualFold(name, p.Name) {
			return true
		}
	}
	return false
}

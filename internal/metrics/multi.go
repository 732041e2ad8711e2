package metrics

import "github.com/nerrad567/iot-sensor-simulator/internal/simulation"

// Multi notifies each observer in order. Nil entries are skipped.
type Multi []simulation.Observer

// ObserveTick implements simulation.Observer.
func (m Multi) ObserveTick(r simulation.TickResult) {
	for _, o := range m {
		if o != nil {
			o.ObserveTick(r)
		}
	}
}

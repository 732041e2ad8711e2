// Package simulation implements the sensor simulation engine.
//
// The engine periodically produces synthetic readings for four sensor kinds
// (temperature, humidity, pressure, light) and hands them to a Publisher.
// It is composed of:
//
//   - Generate: range + noise level → one rounded value
//   - SettingsStore: per-sensor ranges, update frequency, noise level
//   - OverrideState: manual-mode flag and the last operator-supplied values
//   - scheduler: the single periodic loop, with start/stop/restart
//   - Engine: the façade the HTTP API and the MQTT command listener drive
//
// # Concurrency
//
// All control operations on an Engine serialise on one mutex. The tick
// goroutine never takes that mutex; it reads SettingsStore and OverrideState
// through their own read locks. This lets Stop wait for an in-flight tick to
// finish while still holding the control lock, so two loops never coexist.
//
// Ticks are strictly sequential: the next ticker fire is only consumed after
// the previous Publish returned.
//
// # Usage
//
//	engine, err := simulation.New(simulation.Options{
//	    Publisher: publisher,
//	    Topic:     "iot/simulated/data",
//	    Logger:    logger.With("component", "simulation"),
//	})
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	if err := engine.Start(); err != nil && !errors.Is(err, simulation.ErrAlreadyInState) {
//	    return err
//	}
package simulation

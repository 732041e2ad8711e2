package publish

import (
	"context"
	"sync"

	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Logger is the logging interface the fanout needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// MirrorObserver is told about every mirror failure. Optional.
type MirrorObserver interface {
	ObserveMirrorError(name string)
}

// Mirror is a named secondary sink.
type Mirror struct {
	Name      string
	Publisher simulation.Publisher
}

// Fanout sends each reading to a primary publisher and, concurrently, to
// every mirror. Publish returns the primary's error only.
type Fanout struct {
	primary  simulation.Publisher
	mirrors  []Mirror
	logger   Logger
	observer MirrorObserver
}

// NewFanout creates a fanout. A nil primary is allowed when only mirrors
// are configured.
func NewFanout(primary simulation.Publisher, logger Logger, mirrors ...Mirror) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

// SetMirrorObserver registers an observer for mirror failures.
func (f *Fanout) SetMirrorObserver(o MirrorObserver) {
	f.observer = o
}

// Publish implements simulation.Publisher. It returns once the primary and
// all mirrors have finished, so a stopped engine leaves nothing in flight.
func (f *Fanout) Publish(ctx context.Context, topic string, reading simulation.Reading) error {
	var wg sync.WaitGroup
	for _, m := range f.mirrors {
		wg.Add(1)
		go func(m Mirror) {
			defer wg.Done()
			if err := m.Publisher.Publish(ctx, topic, reading); err != nil {
				if f.logger != nil {
					f.logger.Warn("mirror publish failed", "mirror", m.Name, "error", err)
				}
				if f.observer != nil {
					f.observer.ObserveMirrorError(m.Name)
				}
			}
		}(m)
	}

	var err error
	if f.primary != nil {
		err = f.primary.Publish(ctx, topic, reading)
	}
	wg.Wait()
	return err
}

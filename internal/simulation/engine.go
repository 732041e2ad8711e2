package simulation

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Publisher delivers readings to subscribers.
//
// Implementations own connection lifecycle, QoS and retries. The engine
// logs and counts a returned error, then carries on with the next tick.
type Publisher interface {
	Publish(ctx context.Context, topic string, reading Reading) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, reading Reading) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, topic string, reading Reading) error {
	return f(ctx, topic, reading)
}

// Logger is the logging interface the engine needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TickOutcome classifies what a tick did.
type TickOutcome string

// Tick outcomes.
const (
	TickPublished TickOutcome = "published"
	TickSkipped   TickOutcome = "skipped"
	TickFailed    TickOutcome = "failed"
)

// TickResult describes one completed tick.
type TickResult struct {
	Outcome  TickOutcome
	Mode     Mode
	Reading  Reading
	Duration time.Duration
	Err      error
}

// Observer is notified after every tick, on the tick goroutine.
// Implementations must not block.
type Observer interface {
	ObserveTick(result TickResult)
}

// DefaultPublishTimeout bounds a single Publish call when Options leaves it zero.
const DefaultPublishTimeout = 5 * time.Second

// Options configures an Engine.
type Options struct {
	// Publisher receives every reading. Required.
	Publisher Publisher

	// Topic is passed to Publisher on every publish. Required.
	Topic string

	// Clock drives the ticker and timestamps. Defaults to the real clock.
	Clock clockwork.Clock

	// Rand is the value source. Defaults to a PCG seeded from the clock.
	Rand *rand.Rand

	// Logger defaults to a no-op logger.
	Logger Logger

	// PublishTimeout defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration

	// Observer is optional.
	Observer Observer
}

// Engine is the simulation façade.
//
// Thread Safety: all methods are safe for concurrent use. Control
// operations serialise on one mutex, so concurrent Start calls never
// create two loops.
type Engine struct {
	mu sync.Mutex

	settings *SettingsStore
	override *OverrideState
	sched    *scheduler

	publisher      Publisher
	topic          string
	clock          clockwork.Clock
	rng            *rand.Rand
	logger         Logger
	publishTimeout time.Duration
	observer       Observer
}

// New creates a stopped engine holding DefaultSettings.
func New(opts Options) (*Engine, error) {
	if opts.Publisher == nil {
		return nil, ErrNoPublisher
	}
	if opts.Topic == "" {
		return nil, ErrNoTopic
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		seed := uint64(opts.Clock.Now().UnixNano()) //nolint:gosec // simulation values, not security
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}

	e := &Engine{
		settings:       NewSettingsStore(),
		override:       &OverrideState{},
		publisher:      opts.Publisher,
		topic:          opts.Topic,
		clock:          opts.Clock,
		rng:            opts.Rand,
		logger:         opts.Logger,
		publishTimeout: opts.PublishTimeout,
		observer:       opts.Observer,
	}
	e.sched = newScheduler(opts.Clock, e.tick)
	return e, nil
}

// Topic returns the topic readings are published on.
func (e *Engine) Topic() string {
	return e.topic
}

// Start begins periodic publishing at the current update frequency.
//
// Returns ErrAlreadyRunning (wrapping ErrAlreadyInState) when already started.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	interval := e.settings.Get().Interval()
	if err := e.sched.start(interval); err != nil {
		return err
	}
	e.logger.Info("simulation started", "topic", e.topic, "interval", interval.String())
	return nil
}

// Stop halts periodic publishing. An in-flight tick completes first.
//
// Returns ErrAlreadyStopped (wrapping ErrAlreadyInState) when not running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sched.stop(); err != nil {
		return err
	}
	e.logger.Info("simulation stopped")
	return nil
}

// Running reports whether the loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sched.running()
}

// Reset restores default settings and clears manual mode. A running
// simulation keeps running at the default frequency.
func (e *Engine) Reset() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasRunning := e.sched.running()
	if wasRunning {
		_ = e.sched.stop()
	}

	settings := e.settings.Reset()
	e.override.Clear()

	if wasRunning {
		_ = e.sched.start(settings.Interval())
	}

	e.logger.Info("simulation reset", "running", wasRunning)
	return e.statusLocked()
}

// UpdateSettings applies a partial settings change. When running, the loop
// is restarted so the new period applies from the next tick boundary.
//
// On error (wrapping ErrInvalidSettings) nothing changes.
func (e *Engine) UpdateSettings(u SettingsUpdate) (Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	settings, err := e.settings.Update(u)
	if err != nil {
		return settings, err
	}

	if e.sched.running() {
		e.sched.restart(settings.Interval())
	}

	e.logger.Info("simulation settings updated",
		"update_frequency_s", settings.UpdateFrequencySeconds,
		"noise_level", settings.NoiseLevel,
		"ranges_changed", u.Ranges != nil,
	)
	return settings, nil
}

// SetManual sets manual values and/or the manual flag; nil arguments are
// left unchanged. Values may be out of range but must name known sensors.
//
// When the result is manual mode with values and the loop is running, one
// reading is published immediately, ahead of the next regular tick. A
// stopped engine publishes nothing; the values go out on the first tick
// after Start.
func (e *Engine) SetManual(values Values, enabled *bool) (Override, error) {
	if err := values.Validate(); err != nil {
		return Override{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ov := e.override.SetManual(values, enabled)
	if ov.Enabled && ov.LastValues != nil && (values != nil || enabled != nil) {
		e.sched.poke()
	}

	e.logger.Info("manual override updated", "enabled", ov.Enabled, "has_values", ov.LastValues != nil)
	return ov, nil
}

// ResumeAutomatic disables manual mode, keeping the last manual values.
func (e *Engine) ResumeAutomatic() Override {
	disabled := false

	e.mu.Lock()
	defer e.mu.Unlock()

	ov := e.override.SetManual(nil, &disabled)
	e.logger.Info("automatic mode resumed")
	return ov
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	return e.settings.Get()
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Engine) statusLocked() Status {
	ov := e.override.Snapshot()
	return Status{
		Running:          e.sched.running(),
		Settings:         e.settings.Get(),
		ManualOverride:   ov.Enabled,
		LastManualValues: ov.LastValues,
	}
}

// Close stops the loop if it is running.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched.running() {
		_ = e.sched.stop()
		e.logger.Info("simulation stopped on close")
	}
}

// tick runs on the loop goroutine. It must not take e.mu.
func (e *Engine) tick(ctx context.Context) {
	started := e.clock.Now()
	reading, ok := e.nextReading(started)
	if !ok {
		e.logger.Debug("manual mode without values, tick skipped")
		e.observe(TickResult{Outcome: TickSkipped, Mode: ModeManual})
		return
	}

	// A dispatched publish is not aborted by stop; it is only bounded.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	err := e.publisher.Publish(pubCtx, e.topic, reading)
	cancel()

	result := TickResult{
		Outcome:  TickPublished,
		Mode:     reading.Mode,
		Reading:  reading,
		Duration: e.clock.Since(started),
	}
	if err != nil {
		result.Outcome = TickFailed
		result.Err = err
		e.logger.Warn("publish failed", "topic", e.topic, "mode", string(reading.Mode), "error", err)
	} else {
		e.logger.Debug("reading published", "topic", e.topic, "mode", string(reading.Mode))
	}
	e.observe(result)
}

// nextReading builds the reading for a tick. ok is false when manual mode
// has no values.
func (e *Engine) nextReading(now time.Time) (Reading, bool) {
	ov := e.override.Snapshot()
	if ov.Enabled {
		if ov.LastValues == nil {
			return Reading{}, false
		}
		return Reading{Values: ov.LastValues, Timestamp: now, Mode: ModeManual}, true
	}

	return Reading{
		Values:    generateAll(e.rng, e.settings.Get()),
		Timestamp: now,
		Mode:      ModeAutomatic,
	}, true
}

func (e *Engine) observe(r TickResult) {
	if e.observer != nil {
		e.observer.ObserveTick(r)
	}
}

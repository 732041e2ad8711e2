package control

import (
	"context"

	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/preset"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

// Engine is the subset of *simulation.Engine the controller drives.
type Engine interface {
	Start() error
	Stop() error
	Reset() simulation.Status
	UpdateSettings(u simulation.SettingsUpdate) (simulation.Settings, error)
	SetManual(values simulation.Values, enabled *bool) (simulation.Override, error)
	ResumeAutomatic() simulation.Override
	Status() simulation.Status
}

// Presets is the subset of *preset.Service needed to apply presets.
type Presets interface {
	Apply(ctx context.Context, id string) (*preset.Preset, simulation.Settings, error)
}

// Observer is told about every successful control operation.
type Observer interface {
	ObserveControl(action, source string, status simulation.Status)
}

// StatusNotifier receives the engine status after each change.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, status simulation.Status)
}

// Logger is the logging interface the controller needs.
type Logger interface {
	Info(msg string, args ...any)
}

// Controller serialises nothing itself; the engine does. It only adds the
// side effects that follow a control operation.
type Controller struct {
	engine    Engine
	presets   Presets
	recorder  *audit.Recorder
	observers []Observer
	notifiers []StatusNotifier
	logger    Logger
}

// Options configures a Controller. Only Engine is required.
type Options struct {
	Engine    Engine
	Presets   Presets
	Recorder  *audit.Recorder
	Observers []Observer
	Logger    Logger
}

// New creates a controller.
func New(opts Options) *Controller {
	return &Controller{
		engine:    opts.Engine,
		presets:   opts.Presets,
		recorder:  opts.Recorder,
		observers: opts.Observers,
		logger:    opts.Logger,
	}
}

// AddNotifier registers a status notifier. Call before serving requests.
func (c *Controller) AddNotifier(n StatusNotifier) {
	c.notifiers = append(c.notifiers, n)
}

// Status returns the current engine status.
func (c *Controller) Status() simulation.Status {
	return c.engine.Status()
}

// Start starts the simulation.
func (c *Controller) Start(ctx context.Context, source string) (simulation.Status, error) {
	if err := c.engine.Start(); err != nil {
		return c.engine.Status(), err
	}
	return c.after(ctx, audit.ActionStart, source, nil), nil
}

// Stop stops the simulation.
func (c *Controller) Stop(ctx context.Context, source string) (simulation.Status, error) {
	if err := c.engine.Stop(); err != nil {
		return c.engine.Status(), err
	}
	return c.after(ctx, audit.ActionStop, source, nil), nil
}

// Reset restores default settings and clears manual mode.
func (c *Controller) Reset(ctx context.Context, source string) simulation.Status {
	c.engine.Reset()
	return c.after(ctx, audit.ActionReset, source, nil)
}

// Resume leaves manual mode.
func (c *Controller) Resume(ctx context.Context, source string) (simulation.Override, simulation.Status) {
	ov := c.engine.ResumeAutomatic()
	return ov, c.after(ctx, audit.ActionResume, source, nil)
}

// UpdateSettings applies a partial settings change.
func (c *Controller) UpdateSettings(ctx context.Context, source string, u simulation.SettingsUpdate) (simulation.Settings, error) {
	settings, err := c.engine.UpdateSettings(u)
	if err != nil {
		return settings, err
	}
	c.after(ctx, audit.ActionSettings, source, settingsDetails(u))
	return settings, nil
}

// SetManual updates manual values and/or the manual flag.
func (c *Controller) SetManual(ctx context.Context, source string, values simulation.Values, enabled *bool) (simulation.Override, error) {
	ov, err := c.engine.SetManual(values, enabled)
	if err != nil {
		return ov, err
	}

	details := map[string]any{"enabled": ov.Enabled}
	if values != nil {
		details["values"] = values
	}
	c.after(ctx, audit.ActionManual, source, details)
	return ov, nil
}

// ApplyPreset pushes a preset's settings to the engine.
func (c *Controller) ApplyPreset(ctx context.Context, source, id string) (*preset.Preset, simulation.Settings, error) {
	if c.presets == nil {
		return nil, simulation.Settings{}, preset.ErrNotFound
	}
	p, settings, err := c.presets.Apply(ctx, id)
	if err != nil {
		return nil, settings, err
	}
	c.after(ctx, audit.ActionPresetApply, source, map[string]any{"preset_id": p.ID, "name": p.Name})
	return p, settings, nil
}

// Record audits a non-engine operation such as a preset edit.
func (c *Controller) Record(ctx context.Context, action, source string, details map[string]any) {
	c.recorder.Record(ctx, action, source, details)
}

// after runs the side effects of a successful operation and returns the
// resulting status.
func (c *Controller) after(ctx context.Context, action, source string, details map[string]any) simulation.Status {
	status := c.engine.Status()

	c.recorder.Record(ctx, action, source, details)
	for _, o := range c.observers {
		o.ObserveControl(action, source, status)
	}
	for _, n := range c.notifiers {
		n.NotifyStatus(ctx, status)
	}
	if c.logger != nil {
		c.logger.Info("control operation", "action", action, "source", source, "running", status.Running)
	}
	return status
}

func settingsDetails(u simulation.SettingsUpdate) map[string]any {
	details := map[string]any{}
	if u.Ranges != nil {
		details["ranges"] = u.Ranges
	}
	if u.UpdateFrequencySeconds != nil {
		details["updateFrequency"] = *u.UpdateFrequencySeconds
	}
	if u.NoiseLevel != nil {
		details["noiseLevel"] = *u.NoiseLevel
	}
	return details
}

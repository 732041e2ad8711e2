package control

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iot-sensor-simulator/internal/audit"
	"github.com/nerrad567/iot-sensor-simulator/internal/preset"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
)

type memoryAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memoryAudit) Create(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memoryAudit) List(context.Context, audit.Filter) (*audit.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &audit.ListResult{Entries: append([]audit.Entry(nil), m.entries...), Total: len(m.entries)}, nil
}

func (m *memoryAudit) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action+"/"+e.Source)
	}
	return out
}

type controlRecorder struct {
	actions []string
}

func (r *controlRecorder) ObserveControl(action, source string, _ simulation.Status) {
	r.actions = append(r.actions, action+"/"+source)
}

type statusRecorder struct {
	statuses []simulation.Status
}

func (r *statusRecorder) NotifyStatus(_ context.Context, s simulation.Status) {
	r.statuses = append(r.statuses, s)
}

type fakeHub struct {
	channel string
	payload any
}

func (h *fakeHub) Broadcast(channel string, payload any) {
	h.channel, h.payload = channel, payload
}

type fixture struct {
	ctrl     *Controller
	engine   *simulation.Engine
	audit    *memoryAudit
	observed *controlRecorder
	notified *statusRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	engine, err := simulation.New(simulation.Options{
		Publisher: simulation.PublisherFunc(func(context.Context, string, simulation.Reading) error { return nil }),
		Topic:     "iot/simulated/data",
	})
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	mem := &memoryAudit{}
	obs := &controlRecorder{}
	notified := &statusRecorder{}

	ctrl := New(Options{
		Engine:    engine,
		Presets:   preset.NewService(nil, engine),
		Recorder:  audit.NewRecorder(mem, nil),
		Observers: []Observer{obs},
	})
	ctrl.AddNotifier(notified)

	return fixture{ctrl: ctrl, engine: engine, audit: mem, observed: obs, notified: notified}
}

func TestController_StartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.ctrl.Start(ctx, audit.SourceAPI)
	require.NoError(t, err)
	assert.True(t, st.Running)

	_, err = f.ctrl.Start(ctx, audit.SourceAPI)
	assert.ErrorIs(t, err, simulation.ErrAlreadyRunning)

	st, err = f.ctrl.Stop(ctx, audit.SourceMQTT)
	require.NoError(t, err)
	assert.False(t, st.Running)

	// Only successful operations have side effects.
	want := []string{"simulation.start/api", "simulation.stop/mqtt"}
	assert.Equal(t, want, f.audit.actions())
	assert.Equal(t, want, f.observed.actions)
	require.Len(t, f.notified.statuses, 2)
	assert.True(t, f.notified.statuses[0].Running)
	assert.False(t, f.notified.statuses[1].Running)
}

func TestController_UpdateSettings(t *testing.T) {
	f := newFixture(t)
	freq := 7.0

	settings, err := f.ctrl.UpdateSettings(context.Background(), audit.SourceAPI, simulation.SettingsUpdate{UpdateFrequencySeconds: &freq})
	require.NoError(t, err)
	assert.Equal(t, 7, settings.UpdateFrequencySeconds)

	f.audit.mu.Lock()
	details := f.audit.entries[0].Details
	f.audit.mu.Unlock()
	assert.Equal(t, 7.0, details["updateFrequency"])
	assert.NotContains(t, details, "ranges")
}

func TestController_UpdateSettingsInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctrl.UpdateSettings(context.Background(), audit.SourceAPI, simulation.SettingsUpdate{
		Ranges: simulation.Ranges{simulation.Temperature: {Min: 5, Max: 1}},
	})
	assert.ErrorIs(t, err, simulation.ErrInvalidSettings)
	assert.Empty(t, f.audit.actions())
	assert.Empty(t, f.notified.statuses)
}

func TestController_ManualAndResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := true

	ov, err := f.ctrl.SetManual(ctx, audit.SourceAPI, simulation.Values{simulation.Temperature: 40}, &on)
	require.NoError(t, err)
	assert.True(t, ov.Enabled)
	assert.True(t, f.ctrl.Status().ManualOverride)

	ov, st := f.ctrl.Resume(ctx, audit.SourceAPI)
	assert.False(t, ov.Enabled)
	assert.False(t, st.ManualOverride)
	assert.Equal(t, 40.0, st.LastManualValues[simulation.Temperature])

	assert.Equal(t, []string{"simulation.manual/api", "simulation.resume/api"}, f.audit.actions())
}

func TestController_Reset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	freq := 9.0

	_, err := f.ctrl.UpdateSettings(ctx, audit.SourceAPI, simulation.SettingsUpdate{UpdateFrequencySeconds: &freq})
	require.NoError(t, err)

	st := f.ctrl.Reset(ctx, audit.SourceMQTT)
	assert.Equal(t, simulation.DefaultSettings(), st.Settings)
}

func TestController_ApplyPreset(t *testing.T) {
	f := newFixture(t)

	p, settings, err := f.ctrl.ApplyPreset(context.Background(), audit.SourceAPI, preset.HotDay)
	require.NoError(t, err)
	assert.Equal(t, preset.HotDay, p.ID)
	assert.Equal(t, simulation.SensorRange{Min: 30, Max: 35}, settings.Ranges[simulation.Temperature])
	assert.Equal(t, []string{"preset.apply/api"}, f.audit.actions())

	_, _, err = f.ctrl.ApplyPreset(context.Background(), audit.SourceAPI, "missing")
	assert.ErrorIs(t, err, preset.ErrNotFound)
}

func TestController_NoPresets(t *testing.T) {
	f := newFixture(t)
	ctrl := New(Options{Engine: f.engine})

	_, _, err := ctrl.ApplyPreset(context.Background(), audit.SourceAPI, preset.Normal)
	assert.ErrorIs(t, err, preset.ErrNotFound)
}

func TestBroadcastStatus(t *testing.T) {
	hub := &fakeHub{}
	BroadcastStatus{Hub: hub}.NotifyStatus(context.Background(), simulation.Status{Running: true, ManualOverride: true})

	assert.Equal(t, ChannelStatus, hub.channel)
	payload, ok := hub.payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "running", payload["simulation"])
	assert.Equal(t, true, payload["manualOverride"])
}

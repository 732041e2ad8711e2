package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Test Doubles ──────────────────────────────────────────────

type capturePublisher struct {
	mu       sync.Mutex
	topics   []string
	readings chan Reading
	failNext int
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{readings: make(chan Reading, 32)}
}

func (p *capturePublisher) Publish(_ context.Context, topic string, r Reading) error {
	p.mu.Lock()
	p.topics = append(p.topics, topic)
	fail := p.failNext > 0
	if fail {
		p.failNext--
	}
	p.mu.Unlock()

	if fail {
		return errors.New("broker unavailable")
	}
	p.readings <- r
	return nil
}

type tickRecorder struct {
	results chan TickResult
}

func newTickRecorder() *tickRecorder {
	return &tickRecorder{results: make(chan TickResult, 32)}
}

func (o *tickRecorder) ObserveTick(r TickResult) {
	select {
	case o.results <- r:
	default:
	}
}

const waitTimeout = 2 * time.Second

func nextReading(t *testing.T, p *capturePublisher) Reading {
	t.Helper()
	select {
	case r := <-p.readings:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a published reading")
		return Reading{}
	}
}

func nextTick(t *testing.T, o *tickRecorder) TickResult {
	t.Helper()
	select {
	case r := <-o.results:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a tick")
		return TickResult{}
	}
}

func assertNoReading(t *testing.T, p *capturePublisher) {
	t.Helper()
	select {
	case r := <-p.readings:
		t.Fatalf("unexpected reading published: %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestEngine(t *testing.T) (*Engine, *capturePublisher, *tickRecorder, clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))
	pub := newCapturePublisher()
	obs := newTickRecorder()

	e, err := New(Options{
		Publisher: pub,
		Topic:     "iot/simulated/data",
		Clock:     clock,
		Rand:      newTestRand(1),
		Observer:  obs,
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	return e, pub, obs, clock
}

// advance waits for the single ticker to be armed, then moves time forward.
func advance(clock clockwork.FakeClock, d time.Duration) {
	clock.BlockUntil(1)
	clock.Advance(d)
}

// ─── Construction ──────────────────────────────────────────────

func TestNew_RequiresPublisherAndTopic(t *testing.T) {
	_, err := New(Options{Topic: "t"})
	assert.ErrorIs(t, err, ErrNoPublisher)

	_, err = New(Options{Publisher: newCapturePublisher()})
	assert.ErrorIs(t, err, ErrNoTopic)
}

func TestNew_StartsStoppedWithDefaults(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	st := e.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "stopped", st.State())
	assert.Equal(t, DefaultSettings(), st.Settings)
	assert.False(t, st.ManualOverride)
	assert.Nil(t, st.LastManualValues)
}

// ─── Lifecycle ─────────────────────────────────────────────────

func TestEngine_ThreeTicksOneSecondApart(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	_, err := e.UpdateSettings(SettingsUpdate{UpdateFrequencySeconds: ptr(1.0), NoiseLevel: ptr(0.0)})
	require.NoError(t, err)
	require.NoError(t, e.Start())

	var readings []Reading
	for i := 0; i < 3; i++ {
		advance(clock, time.Second)
		readings = append(readings, nextReading(t, pub))
	}

	for i, r := range readings {
		assert.Equal(t, ModeAutomatic, r.Mode)
		assert.Len(t, r.Values, 4)
		assert.GreaterOrEqual(t, r.Values[Temperature], 20.0)
		assert.LessOrEqual(t, r.Values[Temperature], 30.0)
		if i > 0 {
			assert.Equal(t, time.Second, r.Timestamp.Sub(readings[i-1].Timestamp))
		}
	}
}

func TestEngine_StartTwiceKeepsOneSchedule(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	require.NoError(t, e.Start())
	err := e.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, err, ErrAlreadyInState)

	advance(clock, 3*time.Second)
	nextReading(t, pub)
	assertNoReading(t, pub)
}

func TestEngine_ConcurrentStartCreatesOneLoop(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Start(); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)

	advance(clock, 3*time.Second)
	nextReading(t, pub)
	assertNoReading(t, pub)
}

func TestEngine_StopWhenStopped(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	err := e.Stop()
	assert.ErrorIs(t, err, ErrAlreadyStopped)
	assert.ErrorIs(t, err, ErrAlreadyInState)
}

func TestEngine_StopHaltsPublishing(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	require.NoError(t, e.Start())
	advance(clock, 3*time.Second)
	nextReading(t, pub)

	require.NoError(t, e.Stop())
	assert.False(t, e.Running())

	clock.Advance(10 * time.Second)
	assertNoReading(t, pub)
}

func TestEngine_StopWaitsForInFlightTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	entered := make(chan struct{})
	release := make(chan struct{})
	var published sync.WaitGroup
	published.Add(1)

	e, err := New(Options{
		Topic: "t",
		Clock: clock,
		Publisher: PublisherFunc(func(ctx context.Context, _ string, _ Reading) error {
			close(entered)
			<-release
			published.Done()
			return ctx.Err()
		}),
	})
	require.NoError(t, err)

	require.NoError(t, e.Start())
	advance(clock, 3*time.Second)
	<-entered

	stopped := make(chan struct{})
	go func() {
		_ = e.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a publish was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(waitTimeout):
		t.Fatal("Stop did not return after the tick completed")
	}
	published.Wait()
}

func TestEngine_PublishFailureKeepsSchedule(t *testing.T) {
	e, pub, obs, clock := newTestEngine(t)
	pub.failNext = 1

	require.NoError(t, e.Start())

	advance(clock, 3*time.Second)
	first := nextTick(t, obs)
	assert.Equal(t, TickFailed, first.Outcome)
	assert.Error(t, first.Err)

	advance(clock, 3*time.Second)
	second := nextTick(t, obs)
	assert.Equal(t, TickPublished, second.Outcome)
	nextReading(t, pub)
	assert.True(t, e.Running())
}

// ─── Settings ──────────────────────────────────────────────────

func TestEngine_UpdateSettingsClampsFrequency(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	got, err := e.UpdateSettings(SettingsUpdate{UpdateFrequencySeconds: ptr(11.0)})
	require.NoError(t, err)

	assert.Equal(t, 10, got.UpdateFrequencySeconds)
	assert.Equal(t, 10, e.Settings().UpdateFrequencySeconds)
}

func TestEngine_UpdateSettingsRestartsWithNewPeriod(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	require.NoError(t, e.Start())
	_, err := e.UpdateSettings(SettingsUpdate{UpdateFrequencySeconds: ptr(1.0)})
	require.NoError(t, err)
	assert.True(t, e.Running())

	advance(clock, time.Second)
	nextReading(t, pub)
	assertNoReading(t, pub)
}

func TestEngine_UpdateSettingsAppliesNewRanges(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	_, err := e.UpdateSettings(SettingsUpdate{Ranges: fullRanges(), NoiseLevel: ptr(0.0)})
	require.NoError(t, err)
	require.NoError(t, e.Start())

	advance(clock, 3*time.Second)
	r := nextReading(t, pub)

	for k, rng := range fullRanges() {
		assert.GreaterOrEqual(t, r.Values[k], rng.Min, "%s", k)
		assert.LessOrEqual(t, r.Values[k], rng.Max, "%s", k)
	}
}

func TestEngine_InvalidUpdateChangesNothing(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	bad := fullRanges()
	bad[Temperature] = SensorRange{Min: 30, Max: 20}

	_, err := e.UpdateSettings(SettingsUpdate{Ranges: bad, UpdateFrequencySeconds: ptr(5.0)})

	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, DefaultSettings(), e.Settings())
	assert.False(t, e.Running())
}

// ─── Manual mode ───────────────────────────────────────────────

func TestEngine_ManualWithoutValuesSkipsUntilValuesArrive(t *testing.T) {
	e, pub, obs, clock := newTestEngine(t)

	_, err := e.SetManual(nil, ptr(true))
	require.NoError(t, err)
	require.NoError(t, e.Start())

	advance(clock, 3*time.Second)
	skipped := nextTick(t, obs)
	assert.Equal(t, TickSkipped, skipped.Outcome)
	assertNoReading(t, pub)

	manual := Values{Temperature: 99, Humidity: 5}
	_, err = e.SetManual(manual, nil)
	require.NoError(t, err)

	// Supplying values publishes immediately.
	immediate := nextReading(t, pub)
	assert.Equal(t, manual, immediate.Values)
	assert.Equal(t, ModeManual, immediate.Mode)

	for i := 0; i < 2; i++ {
		advance(clock, 3*time.Second)
		r := nextReading(t, pub)
		assert.Equal(t, manual, r.Values)
	}
}

func TestEngine_ResumeAutomaticFallsBackToRanges(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	require.NoError(t, e.Start())
	_, err := e.SetManual(Values{Temperature: 99}, ptr(true))
	require.NoError(t, err)
	assert.Equal(t, 99.0, nextReading(t, pub).Values[Temperature])

	ov := e.ResumeAutomatic()
	assert.False(t, ov.Enabled)
	assert.Equal(t, Values{Temperature: 99}, ov.LastValues)

	advance(clock, 3*time.Second)
	r := nextReading(t, pub)
	assert.Equal(t, ModeAutomatic, r.Mode)
	margin := NoiseMargin(SensorRange{Min: 20, Max: 30}, 1)
	assert.GreaterOrEqual(t, r.Values[Temperature], 20-margin)
	assert.LessOrEqual(t, r.Values[Temperature], 30+margin)
}

func TestEngine_SetManualWhileStoppedDoesNotPublish(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	ov, err := e.SetManual(Values{Light: 5}, ptr(true))
	require.NoError(t, err)

	assert.True(t, ov.Enabled)
	assertNoReading(t, pub)

	require.NoError(t, e.Start())
	advance(clock, 3*time.Second)
	r := nextReading(t, pub)
	assert.Equal(t, ModeManual, r.Mode)
	assert.Equal(t, 5.0, r.Values[Light])
}

func TestEngine_SetManualRejectsUnknownSensor(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	_, err := e.SetManual(Values{"co2": 400}, ptr(true))

	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.False(t, e.Status().ManualOverride)
}

// ─── Reset ─────────────────────────────────────────────────────

func TestEngine_ResetRestoresDefaultsAndKeepsRunning(t *testing.T) {
	e, pub, _, clock := newTestEngine(t)

	_, err := e.UpdateSettings(SettingsUpdate{Ranges: fullRanges(), UpdateFrequencySeconds: ptr(8.0), NoiseLevel: ptr(0.0)})
	require.NoError(t, err)
	require.NoError(t, e.Start())
	_, err = e.SetManual(Values{Temperature: 99}, ptr(true))
	require.NoError(t, err)
	nextReading(t, pub)

	st := e.Reset()

	assert.True(t, st.Running)
	assert.Equal(t, DefaultSettings(), st.Settings)
	assert.False(t, st.ManualOverride)
	assert.Nil(t, st.LastManualValues)

	// Loop runs at the default period again.
	advance(clock, 3*time.Second)
	assert.Equal(t, ModeAutomatic, nextReading(t, pub).Mode)
}

func TestEngine_ResetWhileStoppedStaysStopped(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	_, err := e.SetManual(nil, ptr(true))
	require.NoError(t, err)

	st := e.Reset()

	assert.False(t, st.Running)
	assert.False(t, st.ManualOverride)
}

// ─── Wire format ───────────────────────────────────────────────

func TestReading_MarshalJSONIsFlat(t *testing.T) {
	r := Reading{
		Values:    Values{Temperature: 24.1, Humidity: 51.3, Pressure: 1001.2, Light: 640.5},
		Timestamp: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Mode:      ModeAutomatic,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"temperature":24.1,"humidity":51.3,"pressure":1001.2,"light":640.5,"timestamp":"2026-01-02T10:00:00.000Z"}`,
		string(data))

	var back Reading
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.Values, back.Values)
	assert.True(t, r.Timestamp.Equal(back.Timestamp))
}

func TestReading_UnmarshalRejectsUnknownSensor(t *testing.T) {
	var r Reading
	err := json.Unmarshal([]byte(`{"co2":400,"timestamp":"2026-01-02T10:00:00.000Z"}`), &r)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

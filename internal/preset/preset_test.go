package preset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/database"
	"github.com/nerrad567/iot-sensor-simulator/internal/simulation"
	"github.com/nerrad567/iot-sensor-simulator/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath, BusyTimeout: 5})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	require.NoError(t, db.Migrate(context.Background(), migrations.FS))
	return NewSQLiteRepository(db.DB)
}

func ptr[T any](v T) *T { return &v }

func greenhouse() *Preset {
	return &Preset{
		Name:        "Greenhouse",
		Description: "Warm and wet",
		Ranges: simulation.Ranges{
			simulation.Temperature: {Min: 26, Max: 32},
			simulation.Humidity:    {Min: 75, Max: 95},
			simulation.Pressure:    {Min: 1005, Max: 1015},
			simulation.Light:       {Min: 600, Max: 900},
		},
		UpdateFrequencySeconds: ptr(2.0),
	}
}

type recordingApplier struct {
	updates []simulation.SettingsUpdate
	err     error
}

func (a *recordingApplier) UpdateSettings(u simulation.SettingsUpdate) (simulation.Settings, error) {
	a.updates = append(a.updates, u)
	if a.err != nil {
		return simulation.Settings{}, a.err
	}
	s := simulation.DefaultSettings()
	s.Ranges = u.Ranges
	return s, nil
}

func TestBuiltIns(t *testing.T) {
	all := BuiltIns()
	require.Len(t, all, 4)

	ids := []string{all[0].ID, all[1].ID, all[2].ID, all[3].ID}
	assert.Equal(t, []string{Normal, HotDay, RainyDay, NightTime}, ids)

	for _, p := range all {
		assert.True(t, p.BuiltIn)
		assert.NoError(t, p.Validate(), p.ID)
	}

	hot, ok := BuiltIn(HotDay)
	require.True(t, ok)
	assert.Equal(t, simulation.SensorRange{Min: 30, Max: 35}, hot.Ranges[simulation.Temperature])
	assert.Equal(t, simulation.SensorRange{Min: 800, Max: 1000}, hot.Ranges[simulation.Light])

	// Returned ranges are copies.
	hot.Ranges[simulation.Temperature] = simulation.SensorRange{Min: -1, Max: 0}
	again, _ := BuiltIn(HotDay)
	assert.Equal(t, 30.0, again.Ranges[simulation.Temperature].Min)
}

func TestPreset_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Preset)
	}{
		{"empty name", func(p *Preset) { p.Name = "  " }},
		{"long name", func(p *Preset) { p.Name = strings.Repeat("x", MaxNameLength+1) }},
		{"missing sensor", func(p *Preset) { delete(p.Ranges, simulation.Light) }},
		{"inverted range", func(p *Preset) { p.Ranges[simulation.Humidity] = simulation.SensorRange{Min: 90, Max: 10} }},
		{"unknown sensor", func(p *Preset) { p.Ranges["co2"] = simulation.SensorRange{Min: 1, Max: 2} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := greenhouse()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrInvalid)
		})
	}
}

func TestPreset_Update(t *testing.T) {
	p := greenhouse()
	u := p.Update()

	assert.Equal(t, p.Ranges, u.Ranges)
	require.NotNil(t, u.UpdateFrequencySeconds)
	assert.Equal(t, 2.0, *u.UpdateFrequencySeconds)
	assert.Nil(t, u.NoiseLevel)

	// The update does not alias the preset.
	u.Ranges[simulation.Light] = simulation.SensorRange{Min: 0, Max: 1}
	*u.UpdateFrequencySeconds = 9
	assert.Equal(t, 600.0, p.Ranges[simulation.Light].Min)
	assert.Equal(t, 2.0, *p.UpdateFrequencySeconds)
}

func TestSQLiteRepository_CRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := greenhouse()
	p.ID = "pre-1"
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, "pre-1")
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse", got.Name)
	assert.Equal(t, p.Ranges, got.Ranges)
	require.NotNil(t, got.UpdateFrequencySeconds)
	assert.Equal(t, 2.0, *got.UpdateFrequencySeconds)
	assert.Nil(t, got.NoiseLevel)
	assert.False(t, got.CreatedAt.IsZero())

	got.NoiseLevel = ptr(0.5)
	got.Description = "Tropical house"
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, "pre-1")
	require.NoError(t, err)
	assert.Equal(t, "Tropical house", again.Description)
	require.NotNil(t, again.NoiseLevel)
	assert.Equal(t, 0.5, *again.NoiseLevel)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, "pre-1"))
	_, err = repo.Get(ctx, "pre-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "pre-1"), ErrNotFound)
}

func TestSQLiteRepository_DuplicateName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := greenhouse()
	a.ID = "a"
	require.NoError(t, repo.Create(ctx, a))

	b := greenhouse()
	b.ID = "b"
	assert.ErrorIs(t, repo.Create(ctx, b), ErrExists)
}

func TestSQLiteRepository_UpdateMissing(t *testing.T) {
	repo := newTestRepo(t)
	p := greenhouse()
	p.ID = "missing"
	assert.ErrorIs(t, repo.Update(context.Background(), p), ErrNotFound)
}

func TestService_ListAndGet(t *testing.T) {
	svc := NewService(newTestRepo(t), &recordingApplier{})
	ctx := context.Background()

	p := greenhouse()
	require.NoError(t, svc.Create(ctx, p))
	assert.NotEmpty(t, p.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, Normal, all[0].ID)
	assert.Equal(t, "Greenhouse", all[4].Name)
	assert.False(t, all[4].BuiltIn)

	got, err := svc.Get(ctx, RainyDay)
	require.NoError(t, err)
	assert.True(t, got.BuiltIn)

	got, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Greenhouse", got.Name)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_BuiltInsAreReadOnly(t *testing.T) {
	svc := NewService(newTestRepo(t), &recordingApplier{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, HotDay), ErrReadOnly)

	p, _ := BuiltIn(Normal)
	assert.ErrorIs(t, svc.Update(ctx, &p), ErrReadOnly)

	clash := greenhouse()
	clash.Name = "hot day"
	assert.ErrorIs(t, svc.Create(ctx, clash), ErrExists)
}

func TestService_NoRepository(t *testing.T) {
	svc := NewService(nil, &recordingApplier{})
	ctx := context.Background()

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	assert.ErrorIs(t, svc.Create(ctx, greenhouse()), ErrReadOnly)
	_, err = svc.Get(ctx, "custom")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Apply(t *testing.T) {
	applier := &recordingApplier{}
	svc := NewService(nil, applier)

	p, settings, err := svc.Apply(context.Background(), NightTime)
	require.NoError(t, err)
	assert.Equal(t, NightTime, p.ID)
	assert.Equal(t, simulation.SensorRange{Min: 0, Max: 50}, settings.Ranges[simulation.Light])

	require.Len(t, applier.updates, 1)
	assert.Nil(t, applier.updates[0].UpdateFrequencySeconds, "built-ins keep the current frequency")
	assert.Nil(t, applier.updates[0].NoiseLevel)
}

func TestService_ApplyError(t *testing.T) {
	boom := errors.New("rejected")
	svc := NewService(nil, &recordingApplier{err: boom})

	_, _, err := svc.Apply(context.Background(), Normal)
	assert.ErrorIs(t, err, boom)

	_, _, err = svc.Apply(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ApplyToEngine(t *testing.T) {
	engine, err := simulation.New(simulation.Options{
		Publisher: simulation.PublisherFunc(func(context.Context, string, simulation.Reading) error { return nil }),
		Topic:     "iot/simulated/data",
	})
	require.NoError(t, err)
	defer engine.Close()

	svc := NewService(newTestRepo(t), engine)
	ctx := context.Background()

	custom := greenhouse()
	custom.NoiseLevel = ptr(5.0)
	require.NoError(t, svc.Create(ctx, custom))

	_, settings, err := svc.Apply(ctx, custom.ID)
	require.NoError(t, err)
	assert.Equal(t, custom.Ranges, settings.Ranges)
	assert.Equal(t, 2, settings.UpdateFrequencySeconds)
	assert.Equal(t, simulation.MaxNoiseLevel, settings.NoiseLevel, "noise is clamped by the engine")
	assert.Equal(t, settings, engine.Settings())
}

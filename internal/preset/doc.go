// Package preset manages named simulation settings.
//
// Four built-in presets mirror common weather conditions and are read-only.
// Custom presets are stored in SQLite. Applying a preset replaces the
// engine's sensor ranges and, when the preset carries them, its update
// frequency and noise level.
//
//	svc := preset.NewService(preset.NewSQLiteRepository(db.DB), engine)
//	settings, err := svc.Apply(ctx, "rainy-day")
package preset

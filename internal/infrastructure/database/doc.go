// Package database provides SQLite connectivity for the sensor simulator.
//
// The store holds user-defined settings presets and the audit log of
// control operations. Generated readings are never persisted.
//
// This package manages:
//   - Connection setup with WAL mode, busy timeout and foreign keys
//   - Schema migrations read from an fs.FS (see the migrations package)
//   - In-memory databases for tests (Path ":memory:")
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns must be NULLABLE or have
// DEFAULT values, and each .up.sql has a matching .down.sql.
package database

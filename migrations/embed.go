// Package migrations embeds the simulator's SQL schema migrations.
//
// The files are compiled into the binary so the store can be created
// without the SQL present on disk:
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package migrations

import "embed"

// FS holds every *.sql migration at its root.
//
//go:embed *.sql
var FS embed.FS

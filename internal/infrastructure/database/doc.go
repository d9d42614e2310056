// Package database opens the service store, a SQLite file holding named
// snapshots of the settings document and the change history.
//
//	db, err := database.Open(database.Config{Path: cfg.Store.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are forward only. Files are named NNNN_description.sql and
// applied once each, in version order.
package database

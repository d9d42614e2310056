// Package migrations holds the store schema: snapshots of the settings
// document and the change history. Files are applied in version order by
// database.DB.Migrate.
package migrations

import "embed"

// FS holds the NNNN_description.sql files.
//
//go:embed *.sql
var FS embed.FS

// Package audit keeps a queryable history of settings changes.
//
// Each attribute write made through a settings context can be stored as an
// Entry carrying the session id, the settings tag, the element path and the
// new value. The notify package's AuditRecorder writes entries as changes
// happen; the CLI's history command reads them back.
//
// Entries live in the settings_audit table created by the embedded
// migrations, so the database must be migrated before use.
package audit

package database

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func meterMigrations() fstest.MapFS {
	return fstest.MapFS{
		"0001_meters.sql":       {Data: []byte("CREATE TABLE meters (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"0002_meter_serial.sql": {Data: []byte("ALTER TABLE meters ADD COLUMN serial TEXT;")},
		"README.md":             {Data: []byte("not a migration")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return count == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, meterMigrations()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "meters") {
		t.Fatal("table meters not created")
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO meters (name, serial) VALUES ('grid', 'SN1')"); err != nil {
		t.Errorf("second migration not applied: %v", err)
	}

	v, err := db.SchemaVersion(ctx)
	if err != nil || v != 2 {
		t.Errorf("SchemaVersion() = %d, %v, want 2", v, err)
	}

	// Already applied migrations are skipped.
	if err := db.Migrate(ctx, meterMigrations()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateResumesAfterFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	broken := meterMigrations()
	broken["0002_meter_serial.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE nowhere ADD COLUMN serial TEXT;")}

	err := db.Migrate(ctx, broken)
	if err == nil || !strings.Contains(err.Error(), "0002_meter_serial") {
		t.Fatalf("Migrate() error = %v, want failure naming 0002_meter_serial", err)
	}
	if v, _ := db.SchemaVersion(ctx); v != 1 {
		t.Errorf("SchemaVersion() after failure = %d, want 1", v)
	}

	if err := db.Migrate(ctx, meterMigrations()); err != nil {
		t.Fatalf("Migrate() after fix error = %v", err)
	}
	if v, _ := db.SchemaVersion(ctx); v != 2 {
		t.Errorf("SchemaVersion() = %d, want 2", v)
	}
}

func TestMigrateEmpty(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background(), fstest.MapFS{}); err != nil {
		t.Fatalf("Migrate() with no migrations error = %v", err)
	}
	if v, _ := db.SchemaVersion(context.Background()); v != 0 {
		t.Errorf("SchemaVersion() = %d, want 0", v)
	}
}

func TestReadMigrationsRejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
		want string
	}{
		{
			name: "bad name",
			fsys: fstest.MapFS{"snapshots.sql": {Data: []byte("SELECT 1;")}},
			want: "NNNN_description",
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"0001_a.sql": {Data: []byte("SELECT 1;")},
				"01_b.sql":   {Data: []byte("SELECT 1;")},
			},
			want: "share version 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMigrations(tt.fsys)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("readMigrations() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		file        string
		wantVersion int
		wantName    string
		wantOk      bool
	}{
		{"0001_settings_snapshots.sql", 1, "settings_snapshots", true},
		{"0012_settings_audit.sql", 12, "settings_audit", true},
		{"0000_zero.sql", 0, "", false},
		{"0001_.sql", 0, "", false},
		{"abcd_name.sql", 0, "", false},
		{"0001_name.txt", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			v, name, ok := parseMigrationName(tt.file)
			if v != tt.wantVersion || name != tt.wantName || ok != tt.wantOk {
				t.Errorf("parseMigrationName(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.file, v, name, ok, tt.wantVersion, tt.wantName, tt.wantOk)
			}
		})
	}
}

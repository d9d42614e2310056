package audit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/database"
	"github.com/EamonHetherton/PVBeanCounter-sub003/migrations"
)

func newTestRepo(t *testing.T) *audit.SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return audit.NewSQLiteRepository(db.DB)
}

func TestCreateGeneratesIDAndTime(t *testing.T) {
	repo := newTestRepo(t)

	e := &audit.Entry{
		Session:   "s1",
		Tag:       "device",
		Element:   "settings/devicemanager[0]/device[0]",
		Attribute: "enabled",
		Value:     "true",
		Source:    "cli",
	}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID = %q, want a full uuid: %v", e.ID, err)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	res, err := repo.List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() = %d total, %d entries", res.Total, len(res.Entries))
	}
	got := res.Entries[0]
	if got.ID != e.ID || got.Value != "true" || got.Source != "cli" {
		t.Errorf("entry = %+v", got)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func TestListFilterAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	entries := []audit.Entry{
		{Session: "a", Tag: "device", Element: "d0", Attribute: "name", Value: "x"},
		{Session: "a", Tag: "devicemanager", Element: "m0", Attribute: "host", Value: "h"},
		{Session: "b", Tag: "device", Element: "d1", Attribute: "address", Value: "3"},
		{Session: "b", Tag: "device", Element: "d0", Attribute: "enabled", Value: "false"},
	}
	for i := range entries {
		entries[i].Source = "test"
		entries[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name      string
		filter    audit.Filter
		wantTotal int
		wantFirst string
	}{
		{"all newest first", audit.Filter{}, 4, "enabled"},
		{"by tag", audit.Filter{Tag: "device"}, 3, "enabled"},
		{"by element", audit.Filter{Element: "d0"}, 2, "enabled"},
		{"by session", audit.Filter{Session: "a"}, 2, "host"},
		{"combined", audit.Filter{Session: "a", Tag: "device"}, 1, "name"},
		{"offset", audit.Filter{Limit: 1, Offset: 1}, 4, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if len(res.Entries) == 0 || res.Entries[0].Attribute != tt.wantFirst {
				t.Errorf("first entry = %+v, want attribute %q", res.Entries, tt.wantFirst)
			}
		})
	}
}

func TestListClampsLimit(t *testing.T) {
	repo := newTestRepo(t)

	tests := []struct {
		limit, want int
	}{
		{0, 50},
		{-3, 50},
		{10, 10},
		{500, 200},
	}
	for _, tt := range tests {
		res, err := repo.List(context.Background(), audit.Filter{Limit: tt.limit, Offset: -1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if res.Limit != tt.want || res.Offset != 0 {
			t.Errorf("Limit %d -> %d offset %d, want %d offset 0", tt.limit, res.Limit, res.Offset, tt.want)
		}
		if res.Entries == nil {
			t.Error("Entries should be empty, not nil")
		}
	}
}

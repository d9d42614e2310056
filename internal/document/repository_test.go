package document_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/database"
	"github.com/EamonHetherton/PVBeanCounter-sub003/migrations"
)

func newTestRepo(t *testing.T) *document.SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "store.db"),
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
	return document.NewSQLiteRepository(db.DB)
}

func sampleDocument() *document.Document {
	doc := document.New("settings")
	doc.Root.SetValue("version", "2")
	port := doc.Root.AddElement("serialport")
	port.SetValue("name", "com1")
	port.SetValue("baudrate", "9600")
	mgr := doc.Root.AddElement("devicemanager")
	mgr.SetValue("name", "rtu")
	mgr.AddElement("device").SetValue("name", "inv1")
	mgr.AddElement("device").SetValue("name", "inv2")
	return doc
}

func TestSQLiteRepositorySaveLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := sampleDocument()
	if err := repo.Save(ctx, "baseline", doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx, "baseline")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var want, got []string
	flatten(doc.Root, &want)
	flatten(loaded.Root, &got)
	if len(want) != len(got) {
		t.Fatalf("loaded %d entries, want %d:\n%v", len(got), len(want), got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSQLiteRepositoryOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "s", sampleDocument()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, "s", document.New("settings")); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx, "s")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n := len(loaded.Root.Children()); n != 0 {
		t.Errorf("overwritten snapshot has %d children, want 0", n)
	}
}

func TestSQLiteRepositoryListDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"b", "a"} {
		if err := repo.Save(ctx, name, sampleDocument()); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}

	infos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[1].Name != "b" {
		t.Fatalf("List() = %+v, want a then b", infos)
	}
	if infos[0].RootName != "settings" || infos[0].Elements != 5 {
		t.Errorf("List()[0] = %+v, want root settings with 5 elements", infos[0])
	}
	if infos[0].SavedAt.IsZero() {
		t.Error("SavedAt not populated")
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Load(ctx, "a"); !errors.Is(err, document.ErrSnapshotNotFound) {
		t.Errorf("Load() after Delete error = %v, want ErrSnapshotNotFound", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, document.ErrSnapshotNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSQLiteRepositorySaveRejects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		snap    string
		doc     *document.Document
		wantErr error
	}{
		{"empty name", "", sampleDocument(), document.ErrInvalidSnapshotName},
		{"nil document", "x", nil, document.ErrEmptyDocument},
		{"no root", "x", &document.Document{}, document.ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Save(ctx, tt.snap, tt.doc); !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// flatten records every element path and attribute in document order.
func flatten(e *document.Element, out *[]string) {
	*out = append(*out, e.Path())
	for _, a := range e.Attrs() {
		*out = append(*out, e.Path()+"@"+a.Name+"="+a.Value)
	}
	for _, c := range e.Children() {
		flatten(c, out)
	}
}

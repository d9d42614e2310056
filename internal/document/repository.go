package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SnapshotInfo describes a stored document snapshot.
type SnapshotInfo struct {
	Name     string
	RootName string
	SavedAt  time.Time
	Elements int
}

// Repository defines persistence of named document snapshots.
// This abstraction allows the service to run with or without a database.
type Repository interface {
	// Save stores doc under name, replacing any previous snapshot with that name.
	Save(ctx context.Context, name string, doc *Document) error

	// Load rebuilds the snapshot stored under name.
	// Returns ErrSnapshotNotFound if it does not exist.
	Load(ctx context.Context, name string) (*Document, error)

	// List returns every stored snapshot ordered by name.
	List(ctx context.Context) ([]SnapshotInfo, error)

	// Delete removes the snapshot stored under name.
	// Returns ErrSnapshotNotFound if it does not exist.
	Delete(ctx context.Context, name string) error
}

// SQLiteRepository implements Repository using SQLite.
//
// Elements are stored in pre-order with their parent id and sibling ordinal,
// so reading rows back in id order rebuilds the tree with document order
// intact.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed snapshot repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save stores doc under name inside a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, name string, doc *Document) error {
	if name == "" {
		return ErrInvalidSnapshotName
	}
	if doc == nil || doc.Root == nil {
		return ErrEmptyDocument
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings_snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("removing previous snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings_snapshots (name, root_name, saved_at) VALUES (?, ?, ?)`,
		name, doc.Root.Name, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	elemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings_elements (snapshot, id, parent_id, ordinal, name)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing element insert: %w", err)
	}
	defer elemStmt.Close()

	attrStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO settings_attributes (snapshot, element_id, ordinal, name, value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing attribute insert: %w", err)
	}
	defer attrStmt.Close()

	nextID := int64(0)
	var walk func(e *Element, parent sql.NullInt64, ordinal int) error
	walk = func(e *Element, parent sql.NullInt64, ordinal int) error {
		id := nextID
		nextID++

		if _, err := elemStmt.ExecContext(ctx, name, id, parent, ordinal, e.Name); err != nil {
			return fmt.Errorf("inserting element %s: %w", e.Path(), err)
		}
		for i, a := range e.attrs {
			if _, err := attrStmt.ExecContext(ctx, name, id, i, a.Name, a.Value); err != nil {
				return fmt.Errorf("inserting attribute %s@%s: %w", e.Path(), a.Name, err)
			}
		}
		for i, c := range e.children {
			if err := walk(c, sql.NullInt64{Int64: id, Valid: true}, i); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(doc.Root, sql.NullInt64{}, 0); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load rebuilds the snapshot stored under name.
func (r *SQLiteRepository) Load(ctx context.Context, name string) (*Document, error) {
	var rootName string
	err := r.db.QueryRowContext(ctx,
		`SELECT root_name FROM settings_snapshots WHERE name = ?`, name,
	).Scan(&rootName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, parent_id, name
		FROM settings_elements
		WHERE snapshot = ?
		ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*Element)
	var root *Element
	for rows.Next() {
		var (
			id       int64
			parentID sql.NullInt64
			elemName string
		)
		if err := rows.Scan(&id, &parentID, &elemName); err != nil {
			return nil, fmt.Errorf("scanning element row: %w", err)
		}

		el := NewElement(elemName)
		byID[id] = el

		if !parentID.Valid {
			root = el
			continue
		}
		parent, ok := byID[parentID.Int64]
		if !ok {
			return nil, fmt.Errorf("element %d references missing parent %d", id, parentID.Int64)
		}
		parent.AppendChild(el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating elements: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrEmptyDocument)
	}

	if err := r.loadAttributes(ctx, name, byID); err != nil {
		return nil, err
	}

	return &Document{Root: root}, nil
}

func (r *SQLiteRepository) loadAttributes(ctx context.Context, name string, byID map[int64]*Element) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT element_id, name, value
		FROM settings_attributes
		WHERE snapshot = ?
		ORDER BY element_id, ordinal`, name)
	if err != nil {
		return fmt.Errorf("querying attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			elementID int64
			attrName  string
			value     string
		)
		if err := rows.Scan(&elementID, &attrName, &value); err != nil {
			return fmt.Errorf("scanning attribute row: %w", err)
		}
		el, ok := byID[elementID]
		if !ok {
			return fmt.Errorf("attribute %q references missing element %d", attrName, elementID)
		}
		el.SetValue(attrName, value)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating attributes: %w", err)
	}
	return nil
}

// List returns every stored snapshot ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, s.root_name, s.saved_at,
			(SELECT COUNT(*) FROM settings_elements e WHERE e.snapshot = s.name)
		FROM settings_snapshots s
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var (
			info    SnapshotInfo
			savedAt string
		)
		if err := rows.Scan(&info.Name, &info.RootName, &savedAt, &info.Elements); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		// Format is controlled by Save
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt) //nolint:errcheck // Format is controlled
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return infos, nil
}

// Delete removes the snapshot stored under name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM settings_snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

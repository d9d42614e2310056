package settings

import (
	"fmt"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
)

// Database types.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// DatabaseSettings holds connection parameters for the reading archive.
type DatabaseSettings struct {
	Node
}

func newDatabaseSettings(ctx *Context, el *document.Element) (*DatabaseSettings, error) {
	d := &DatabaseSettings{Node: newNode(ctx, el)}
	if _, err := d.Port(); err != nil {
		return nil, err
	}
	return d, nil
}

// Type returns the database type, sqlite when unset.
func (d *DatabaseSettings) Type() string {
	if t := d.GetValue("type"); t != "" {
		return t
	}
	return DatabaseSQLite
}

// SetType writes the database type.
func (d *DatabaseSettings) SetType(t string) { d.SetValue("type", t, TagDatabase) }

// Host returns the server host.
func (d *DatabaseSettings) Host() string { return d.GetValue("host") }

// Port returns the server port, or nil when unset.
func (d *DatabaseSettings) Port() (*int, error) { return d.GetInt("port") }

// Name returns the database name.
func (d *DatabaseSettings) Name() string { return d.GetValue("name") }

// User returns the login user.
func (d *DatabaseSettings) User() string { return d.GetValue("user") }

// Password returns the login password.
func (d *DatabaseSettings) Password() string { return d.GetValue("password") }

// File returns the database file for sqlite.
func (d *DatabaseSettings) File() string { return d.GetValue("file") }

// SetFile writes the database file.
func (d *DatabaseSettings) SetFile(path string) { d.SetValue("file", path, TagDatabase) }

// DSN builds a driver connection string for the configured type.
func (d *DatabaseSettings) DSN() (string, error) {
	switch d.Type() {
	case DatabaseSQLite:
		if d.File() == "" {
			return "", fmt.Errorf("%w: sqlite database requires a file", ErrMalformedValue)
		}
		return "file:" + d.File(), nil
	case DatabaseMySQL:
		port, err := d.Port()
		if err != nil {
			return "", err
		}
		p := 3306
		if port != nil {
			p = *port
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", d.User(), d.Password(), d.Host(), p, d.Name()), nil
	default:
		return "", fmt.Errorf("%w: unknown database type %q", ErrMalformedValue, d.Type())
	}
}

// Package container implements a single-file hierarchical container of groups,
// named dimensions, attributes and typed variables.
//
// It plays the role netCDF4 files play for array data: every sweep output,
// score table and stacked data matrix is one container file. The backing store
// is an embedded sqlite database (modernc.org/sqlite, pure Go); numeric
// variable payloads are numpy .npy blobs so they can be pulled out with any npy
// reader.
package container

import (
	"context"
	"database/sql"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS groups(
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	parent INTEGER REFERENCES groups(id),
	name   TEXT NOT NULL,
	UNIQUE(parent, name)
)`, `
CREATE TABLE IF NOT EXISTS dimensions(
	group_id INTEGER NOT NULL REFERENCES groups(id),
	name     TEXT NOT NULL,
	size     INTEGER NOT NULL,
	PRIMARY KEY(group_id, name)
)`, `
CREATE TABLE IF NOT EXISTS attributes(
	group_id INTEGER NOT NULL REFERENCES groups(id),
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY(group_id, name)
)`, `
CREATE TABLE IF NOT EXISTS variables(
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	group_id INTEGER NOT NULL REFERENCES groups(id),
	name     TEXT NOT NULL,
	dtype    TEXT NOT NULL,
	dims     TEXT NOT NULL,
	shape    TEXT NOT NULL,
	data     BLOB NOT NULL,
	UNIQUE(group_id, name)
)`,
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// File is an open container. Writes go through Update, which holds the file
// lock for the whole transaction, so concurrent writers are applied one at a time.
type File struct {
	mu       sync.Mutex
	db       *sql.DB
	path     string
	readOnly bool
	rootID   int64
}

// Create creates a new container at path, replacing any existing file.
func Create(ctx context.Context, path string) (*File, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "container: remove %s", path)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "container: create schema in %s", path)
		}
	}
	res, err := db.ExecContext(ctx, `INSERT INTO groups(parent, name) VALUES (NULL, '/')`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "container: create root group")
	}
	rootID, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "container: create root group")
	}
	return &File{db: db, path: path, rootID: rootID}, nil
}

// Open opens an existing container for reading.
func Open(ctx context.Context, path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "container: open %s", path)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	var rootID int64
	err = db.QueryRowContext(ctx, `SELECT id FROM groups WHERE parent IS NULL`).Scan(&rootID)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "container: %s is not a container file", path)
	}
	return &File{db: db, path: path, readOnly: true, rootID: rootID}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "container: open %s", path)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Path returns the file path the container was opened from.
func (f *File) Path() string { return f.path }

// Close releases the underlying database handle.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.db.Close()
}

// Root returns the root group for reading. It must not be used inside Update;
// use the group passed to the update function instead.
func (f *File) Root() *Group {
	return &Group{q: f.db, id: f.rootID, name: "/", path: "/"}
}

// Update runs fn inside one transaction. Everything fn writes through root (and
// groups reached from it) commits together, or not at all when fn fails.
func (f *File) Update(ctx context.Context, fn func(root *Group) error) (err error) {
	if f.readOnly {
		return errors.NewValueError("container.Update", "container "+f.path+" is open read-only")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "container: begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Group{q: tx, id: f.rootID, name: "/", path: "/", writable: true}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "container: commit")
	}
	return nil
}

package container

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/sfasweep/pkg/errors"
)

// Group is a node in the container tree. Groups obtained inside File.Update
// are writable; groups obtained from File.Root are read-only.
type Group struct {
	q        querier
	id       int64
	name     string
	path     string
	writable bool
}

// Dimension is a named axis length declared on a group.
type Dimension struct {
	Name string
	Size int
}

// Attribute is a named scalar or string-list value attached to a group.
type Attribute struct {
	Name  string
	Value any
}

const (
	attrFloat64 = "f8"
	attrInt64   = "i8"
	attrString  = "str"
	attrStrings = "strs"
)

// Name returns the group's own name ("/" for the root).
func (g *Group) Name() string { return g.name }

// Path returns the slash-separated path of the group from the root.
func (g *Group) Path() string { return g.path }

func (g *Group) child(id int64, name string) *Group {
	p := g.path + "/" + name
	if g.path == "/" {
		p = "/" + name
	}
	return &Group{q: g.q, id: id, name: name, path: p, writable: g.writable}
}

func (g *Group) requireWritable(op string) error {
	if !g.writable {
		return errors.NewValueError(op, "group "+g.path+" is read-only")
	}
	return nil
}

// CreateGroup adds a child group. The name must be unique among siblings.
func (g *Group) CreateGroup(ctx context.Context, name string) (*Group, error) {
	if err := g.requireWritable("container.CreateGroup"); err != nil {
		return nil, err
	}
	if name == "" || strings.Contains(name, "/") {
		return nil, errors.NewValidationError("name", "group names must be non-empty and contain no '/'", name)
	}
	if _, err := g.Group(ctx, name); err == nil {
		return nil, errors.NewValidationError("name", "group already exists in "+g.path, name)
	}
	res, err := g.q.ExecContext(ctx, `INSERT INTO groups(parent, name) VALUES (?, ?)`, g.id, name)
	if err != nil {
		return nil, errors.Wrapf(err, "container: create group %s in %s", name, g.path)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrapf(err, "container: create group %s", name)
	}
	return g.child(id, name), nil
}

// Group returns the named child group, or an error wrapping errors.ErrNotFound.
func (g *Group) Group(ctx context.Context, name string) (*Group, error) {
	var id int64
	err := g.q.QueryRowContext(ctx,
		`SELECT id FROM groups WHERE parent = ? AND name = ?`, g.id, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "container: group %q in %s", name, g.path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "container: look up group %s", name)
	}
	return g.child(id, name), nil
}

// Groups returns the child groups in creation order.
func (g *Group) Groups(ctx context.Context) ([]*Group, error) {
	rows, err := g.q.QueryContext(ctx,
		`SELECT id, name FROM groups WHERE parent = ? ORDER BY id`, g.id)
	if err != nil {
		return nil, errors.Wrapf(err, "container: list groups of %s", g.path)
	}
	defer rows.Close()

	var out []*Group
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.Wrap(err, "container: scan group")
		}
		out = append(out, g.child(id, name))
	}
	return out, errors.Wrap(rows.Err(), "container: list groups")
}

// CreateDimension declares a named axis on this group.
func (g *Group) CreateDimension(ctx context.Context, name string, size int) error {
	if err := g.requireWritable("container.CreateDimension"); err != nil {
		return err
	}
	if size < 0 {
		return errors.NewValidationError("size", "dimension size must be non-negative", size)
	}
	_, err := g.q.ExecContext(ctx,
		`INSERT INTO dimensions(group_id, name, size) VALUES (?, ?, ?)`, g.id, name, size)
	return errors.Wrapf(err, "container: create dimension %s in %s", name, g.path)
}

// Dimension resolves a dimension by name on this group or, failing that, on
// its nearest ancestor declaring it.
func (g *Group) Dimension(ctx context.Context, name string) (int, error) {
	id := g.id
	for {
		var size int
		err := g.q.QueryRowContext(ctx,
			`SELECT size FROM dimensions WHERE group_id = ? AND name = ?`, id, name).Scan(&size)
		if err == nil {
			return size, nil
		}
		if err != sql.ErrNoRows {
			return 0, errors.Wrapf(err, "container: look up dimension %s", name)
		}
		var parent sql.NullInt64
		if err := g.q.QueryRowContext(ctx,
			`SELECT parent FROM groups WHERE id = ?`, id).Scan(&parent); err != nil {
			return 0, errors.Wrapf(err, "container: look up parent of group %d", id)
		}
		if !parent.Valid {
			return 0, errors.Wrapf(errors.ErrNotFound, "container: dimension %q from %s", name, g.path)
		}
		id = parent.Int64
	}
}

// Dimensions returns the dimensions declared on this group only.
func (g *Group) Dimensions(ctx context.Context) ([]Dimension, error) {
	rows, err := g.q.QueryContext(ctx,
		`SELECT name, size FROM dimensions WHERE group_id = ? ORDER BY rowid`, g.id)
	if err != nil {
		return nil, errors.Wrapf(err, "container: list dimensions of %s", g.path)
	}
	defer rows.Close()

	var out []Dimension
	for rows.Next() {
		var d Dimension
		if err := rows.Scan(&d.Name, &d.Size); err != nil {
			return nil, errors.Wrap(err, "container: scan dimension")
		}
		out = append(out, d)
	}
	return out, errors.Wrap(rows.Err(), "container: list dimensions")
}

// SetAttr stores an attribute, replacing any previous value of the same name.
// Supported values are float64, int, int64, string and []string.
func (g *Group) SetAttr(ctx context.Context, name string, value any) error {
	if err := g.requireWritable("container.SetAttr"); err != nil {
		return err
	}
	kind, text, err := encodeAttr(value)
	if err != nil {
		return errors.Wrapf(err, "container: attribute %s", name)
	}
	_, err = g.q.ExecContext(ctx,
		`INSERT OR REPLACE INTO attributes(group_id, name, kind, value) VALUES (?, ?, ?, ?)`,
		g.id, name, kind, text)
	return errors.Wrapf(err, "container: set attribute %s on %s", name, g.path)
}

// Attr returns the named attribute value.
func (g *Group) Attr(ctx context.Context, name string) (any, error) {
	var kind, text string
	err := g.q.QueryRowContext(ctx,
		`SELECT kind, value FROM attributes WHERE group_id = ? AND name = ?`, g.id, name).Scan(&kind, &text)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "container: attribute %q on %s", name, g.path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "container: read attribute %s", name)
	}
	return decodeAttr(kind, text)
}

// AttrFloat64 returns a numeric attribute as float64.
func (g *Group) AttrFloat64(ctx context.Context, name string) (float64, error) {
	v, err := g.Attr(ctx, name)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	}
	return 0, errors.NewValueError("container.AttrFloat64", "attribute "+name+" is not numeric")
}

// AttrStrings returns a string-list attribute.
func (g *Group) AttrStrings(ctx context.Context, name string) ([]string, error) {
	v, err := g.Attr(ctx, name)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]string)
	if !ok {
		return nil, errors.NewValueError("container.AttrStrings", "attribute "+name+" is not a string list")
	}
	return s, nil
}

// Attrs returns all attributes of the group in insertion order.
func (g *Group) Attrs(ctx context.Context) ([]Attribute, error) {
	rows, err := g.q.QueryContext(ctx,
		`SELECT name, kind, value FROM attributes WHERE group_id = ? ORDER BY rowid`, g.id)
	if err != nil {
		return nil, errors.Wrapf(err, "container: list attributes of %s", g.path)
	}
	defer rows.Close()

	var out []Attribute
	for rows.Next() {
		var name, kind, text string
		if err := rows.Scan(&name, &kind, &text); err != nil {
			return nil, errors.Wrap(err, "container: scan attribute")
		}
		v, err := decodeAttr(kind, text)
		if err != nil {
			return nil, err
		}
		out = append(out, Attribute{Name: name, Value: v})
	}
	return out, errors.Wrap(rows.Err(), "container: list attributes")
}

func encodeAttr(value any) (kind, text string, err error) {
	switch v := value.(type) {
	case float64:
		return attrFloat64, strconv.FormatFloat(v, 'g', -1, 64), nil
	case int:
		return attrInt64, strconv.FormatInt(int64(v), 10), nil
	case int64:
		return attrInt64, strconv.FormatInt(v, 10), nil
	case string:
		return attrString, v, nil
	case []string:
		b, err := json.Marshal(v)
		return attrStrings, string(b), err
	}
	return "", "", errors.Newf("unsupported attribute type %T", value)
}

func decodeAttr(kind, text string) (any, error) {
	switch kind {
	case attrFloat64:
		v, err := strconv.ParseFloat(text, 64)
		return v, errors.Wrap(err, "container: decode float attribute")
	case attrInt64:
		v, err := strconv.ParseInt(text, 10, 64)
		return v, errors.Wrap(err, "container: decode int attribute")
	case attrString:
		return text, nil
	case attrStrings:
		var v []string
		err := json.Unmarshal([]byte(text), &v)
		return v, errors.Wrap(err, "container: decode string list attribute")
	}
	return nil, errors.Newf("container: unknown attribute kind %q", kind)
}

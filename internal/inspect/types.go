// Package inspect reads the observed structure of live tables through
// INFORMATION_SCHEMA and SHOW statements. Everything here is read-only;
// the reconciler and dump writer consume the snapshots it produces.
package inspect

import (
	"strings"

	"schemasync/internal/core"
)

// Column is one row of SHOW FULL COLUMNS, unprocessed except for NULL
// handling.
type Column struct {
	Name      string
	Type      string
	Collation string
	Nullable  bool
	Key       string
	Default   *string
	Extra     string
	Comment   string
}

// Index is one observed index with its full column list.
type Index struct {
	Name     string
	Columns  []string
	Unique   bool
	Fulltext bool
}

// ForeignKey is one observed foreign-key constraint.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  core.RefAction
	OnUpdate  core.RefAction
}

// Table is the complete observed snapshot of a single table: the schema
// in IR shape plus the raw index and constraint maps the reconciler
// diffs against, and the size figures used for cost warnings.
type Table struct {
	Schema      *core.Schema
	Indexes     map[string]Index
	ForeignKeys map[string]ForeignKey
	RowEstimate int64
	ByteSize    int64
}

// toColumnDef lifts a raw observed column into the IR shape.
func (c *Column) toColumnDef() *core.ColumnDef {
	typ, length, values, unsigned := core.ParseColumnType(c.Type)

	def := &core.ColumnDef{
		Name:          c.Name,
		Type:          typ,
		Length:        length,
		Values:        values,
		Unsigned:      unsigned,
		Nullable:      c.Nullable,
		AutoIncrement: strings.Contains(strings.ToLower(c.Extra), "auto_increment"),
		Comment:       c.Comment,
	}
	if c.Default != nil {
		v := *c.Default
		def.Default = &v
	}
	return def
}

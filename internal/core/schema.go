// Package core contains the single source of truth for a table schema.
// It defines the driver-agnostic representation produced by the model
// parser, read back from a live database by the inspector, and consumed
// by the reconciler, differ, and dump pipeline.
package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Storage defaults applied to every schema unless overridden.
const (
	DefaultEngine    = "InnoDB"
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_unicode_ci"
)

// identRe is the only shape an identifier may take. The parser rejects
// anything else, which keeps identifier injection structurally
// impossible in concatenated SQL.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is usable as a table or column name.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// Schema represents the full definition of a single table: columns in
// declaration order, composite and derived indexes, an optional
// partition clause, and table-level storage options.
type Schema struct {
	TableName string
	Columns   []*ColumnDef

	// CompositeIndexes and CompositeUniqueIndexes map an index name to
	// the ordered list of participating column names.
	CompositeIndexes       map[string][]string
	CompositeUniqueIndexes map[string][]string

	TableComment string
	Partition    *Partition

	// Timestamps records that created_at / updated_at management was
	// declared on the model. The parser injects the two columns; the
	// validator checks both are present.
	Timestamps bool

	Engine    string
	Charset   string
	Collation string
}

// NewSchema returns a schema for the named table with the storage
// defaults filled in.
func NewSchema(table string) *Schema {
	return &Schema{
		TableName:              table,
		CompositeIndexes:       map[string][]string{},
		CompositeUniqueIndexes: map[string][]string{},
		Engine:                 DefaultEngine,
		Charset:                DefaultCharset,
		Collation:              DefaultCollation,
	}
}

// ColumnDef describes one column of a schema.
type ColumnDef struct {
	// Name is the column identifier; it must match identRe.
	Name string
	// Type is the canonical upper-case SQL type token (VARCHAR, INT, ...).
	Type string
	// Length is the optional display length; for DECIMAL it carries
	// "precision,scale".
	Length string
	// Values holds the ordered member list for ENUM and SET columns.
	Values []string

	Primary       bool
	Unique        bool
	Nullable      bool
	Unsigned      bool
	AutoIncrement bool
	Index         bool
	Fulltext      bool
	First         bool
	// Drop marks the column for removal; no other attribute is read.
	Drop bool

	// Default is the canonical default value per NormalizeDefault
	// (nil means no default).
	Default *string

	Comment string
	Check   string
	// After positions the column in ALTER statements.
	After string
	// Rename carries the previous column name when the property was renamed.
	Rename string

	Foreign *ForeignKey
}

// ForeignKey describes a single-column foreign key reference.
type ForeignKey struct {
	RefTable  string
	RefColumn string
	OnDelete  RefAction
	OnUpdate  RefAction
}

// RefAction is a referential action for ON DELETE / ON UPDATE.
type RefAction string

const (
	RefCascade  RefAction = "CASCADE"
	RefRestrict RefAction = "RESTRICT"
	RefSetNull  RefAction = "SET NULL"
	RefNoAction RefAction = "NO ACTION"
)

// ValidRefAction reports whether s is a recognized referential action.
func ValidRefAction(s string) bool {
	switch RefAction(strings.ToUpper(strings.TrimSpace(s))) {
	case RefCascade, RefRestrict, RefSetNull, RefNoAction:
		return true
	}
	return false
}

// NormalizeRefAction upper-cases s and falls back to RESTRICT when empty.
func NormalizeRefAction(s string) RefAction {
	a := RefAction(strings.ToUpper(strings.TrimSpace(s)))
	if a == "" {
		return RefRestrict
	}
	return a
}

// PartitionKind is the partitioning strategy of a table.
type PartitionKind string

const (
	PartitionHash  PartitionKind = "HASH"
	PartitionKey   PartitionKind = "KEY"
	PartitionRange PartitionKind = "RANGE"
	PartitionList  PartitionKind = "LIST"
)

// Partition describes the PARTITION BY clause of a table. Only HASH and
// KEY reach DDL generation; RANGE and LIST parse but are rejected there.
type Partition struct {
	Kind   PartitionKind
	Column string
	Count  int
}

// Equal reports whether two partition definitions match on kind, column,
// and count.
func (p *Partition) Equal(o *Partition) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Kind == o.Kind && strings.EqualFold(p.Column, o.Column) && p.Count == o.Count
}

// SimpleIndex is a single-column index derived from a per-column
// attribute.
type SimpleIndex struct {
	Column string
	Unique bool
}

// SimpleIndexName returns the conventional name of a derived
// single-column index.
func SimpleIndexName(column string, unique bool) string {
	if unique {
		return column + "_unique"
	}
	return column + "_index"
}

// CompositeIndexName derives the default name of a composite index from
// its column list.
func CompositeIndexName(columns []string, unique bool) string {
	prefix := "idx_"
	if unique {
		prefix = "unq_"
	}
	return prefix + strings.Join(columns, "_")
}

// FindColumn looks up a column by name (case-insensitive).
func (s *Schema) FindColumn(name string) *ColumnDef {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// PrimaryColumns returns the names of all primary-key columns in
// declaration order.
func (s *Schema) PrimaryColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if c.Primary {
			names = append(names, c.Name)
		}
	}
	return names
}

// SimpleIndexes derives the map of single-column indexes from per-column
// attributes, keyed by the conventional index name.
func (s *Schema) SimpleIndexes() map[string]SimpleIndex {
	out := map[string]SimpleIndex{}
	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if c.Index {
			out[SimpleIndexName(c.Name, false)] = SimpleIndex{Column: c.Name}
		}
		if c.Unique {
			out[SimpleIndexName(c.Name, true)] = SimpleIndex{Column: c.Name, Unique: true}
		}
	}
	return out
}

// FulltextColumns returns the names of all columns carrying a fulltext
// attribute, in declaration order.
func (s *Schema) FulltextColumns() []string {
	var names []string
	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if c.Fulltext {
			names = append(names, c.Name)
		}
	}
	return names
}

// ForeignKeys returns the columns declaring a foreign key, in
// declaration order.
func (s *Schema) ForeignKeys() []*ColumnDef {
	var cols []*ColumnDef
	for _, c := range s.Columns {
		if c.Drop || c.Foreign == nil {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// String returns a short human-readable summary of the schema.
func (s *Schema) String() string {
	return fmt.Sprintf("Schema: %s (%d cols, %d composite, %d unique composite)",
		s.TableName, len(s.Columns), len(s.CompositeIndexes), len(s.CompositeUniqueIndexes))
}

// SchemaSet maps table names to their schemas. It is the input shape of
// the IR-to-IR differ.
type SchemaSet map[string]*Schema

// TableNames returns the set's table names sorted case-insensitively.
func (ss SchemaSet) TableNames() []string {
	names := make([]string, 0, len(ss))
	for name := range ss {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// SortedKeys returns the keys of a string-keyed map sorted
// case-insensitively. Plans must be deterministic, so every map walk in
// DDL generation goes through this.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

// numericTypes are the type tokens that accept UNSIGNED.
var numericTypes = map[string]bool{
	"TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "INT": true,
	"BIGINT": true, "DECIMAL": true, "FLOAT": true, "DOUBLE": true,
}

// NumericType reports whether the canonical type token is numeric.
func NumericType(typ string) bool {
	return numericTypes[strings.ToUpper(typ)]
}

// stringTypes are the type tokens that carry charset/collation.
var stringTypes = map[string]bool{
	"CHAR": true, "VARCHAR": true, "TEXT": true, "MEDIUMTEXT": true,
	"LONGTEXT": true, "ENUM": true, "SET": true,
}

// StringType reports whether the canonical type token is a character type.
func StringType(typ string) bool {
	return stringTypes[strings.ToUpper(typ)]
}

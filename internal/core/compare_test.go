package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(v string) *string { return &v }

func TestColumnChangedIdentical(t *testing.T) {
	a := &ColumnDef{Name: "email", Type: "VARCHAR", Length: "255"}
	b := &ColumnDef{Name: "email", Type: "VARCHAR", Length: "255"}
	assert.False(t, ColumnChanged(a, b))
}

func TestColumnChangedFields(t *testing.T) {
	base := func() *ColumnDef {
		return &ColumnDef{Name: "c", Type: "VARCHAR", Length: "64", Nullable: true}
	}

	tests := []struct {
		name   string
		mutate func(*ColumnDef)
	}{
		{"type", func(c *ColumnDef) { c.Type = "CHAR" }},
		{"length", func(c *ColumnDef) { c.Length = "128" }},
		{"nullability", func(c *ColumnDef) { c.Nullable = false }},
		{"default", func(c *ColumnDef) { c.Default = strptr("x") }},
		{"comment", func(c *ColumnDef) { c.Comment = "changed" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base()
			tt.mutate(got)
			assert.True(t, ColumnChanged(base(), got))
		})
	}
}

func TestColumnChangedUnsigned(t *testing.T) {
	a := &ColumnDef{Name: "n", Type: "INT", Length: "11", Unsigned: true}
	b := &ColumnDef{Name: "n", Type: "INT", Length: "11"}
	assert.True(t, ColumnChanged(a, b))
}

// Integer display widths are cosmetic; MySQL 8 stopped reporting them.
func TestColumnChangedIntegerDisplayWidth(t *testing.T) {
	a := &ColumnDef{Name: "n", Type: "INT", Length: "11"}
	b := &ColumnDef{Name: "n", Type: "INT", Length: "10"}
	assert.False(t, ColumnChanged(a, b))

	c := &ColumnDef{Name: "n", Type: "INT"}
	assert.False(t, ColumnChanged(a, c))
}

// TINYINT(1) is the boolean rendering and stays significant.
func TestColumnChangedTinyintBoolean(t *testing.T) {
	a := &ColumnDef{Name: "f", Type: "TINYINT", Length: "1"}
	b := &ColumnDef{Name: "f", Type: "TINYINT", Length: "4"}
	assert.True(t, ColumnChanged(a, b))
}

// A json column observed without the NULL suffix must not trigger a
// modification when only the declared nullability annotation differs in
// rendering.
func TestColumnChangedJSONComparesNullabilityAndCommentOnly(t *testing.T) {
	want := &ColumnDef{Name: "settings", Type: "JSON", Nullable: true}
	got := &ColumnDef{Name: "settings", Type: "JSON", Nullable: true}
	assert.False(t, ColumnChanged(want, got))

	got.Default = strptr("{}")
	assert.False(t, ColumnChanged(want, got), "json ignores defaults")

	got.Nullable = false
	assert.True(t, ColumnChanged(want, got))

	got.Nullable = true
	got.Comment = "prefs"
	assert.True(t, ColumnChanged(want, got))
}

func TestColumnChangedEnumValues(t *testing.T) {
	a := &ColumnDef{Name: "s", Type: "ENUM", Values: []string{"a", "b"}}
	b := &ColumnDef{Name: "s", Type: "ENUM", Values: []string{"a", "b"}}
	assert.False(t, ColumnChanged(a, b))

	b.Values = []string{"a", "b", "c"}
	assert.True(t, ColumnChanged(a, b))
}

func TestColumnChangedEnumQuotedDefault(t *testing.T) {
	a := &ColumnDef{Name: "s", Type: "ENUM", Values: []string{"active", "archived"}, Default: strptr("active")}
	b := &ColumnDef{Name: "s", Type: "ENUM", Values: []string{"active", "archived"}, Default: strptr("'active'")}
	assert.False(t, ColumnChanged(a, b))
}

func TestIndexDefsDerivation(t *testing.T) {
	s := NewSchema("posts")
	s.Columns = []*ColumnDef{
		{Name: "id", Type: "INT", Primary: true},
		{Name: "slug", Type: "VARCHAR", Length: "64", Unique: true},
		{Name: "author", Type: "VARCHAR", Length: "64", Index: true},
		{Name: "body", Type: "TEXT", Fulltext: true},
	}
	s.CompositeIndexes["idx_a_b"] = []string{"slug", "author"}
	s.CompositeUniqueIndexes["unq_a_b"] = []string{"author", "slug"}

	defs := s.IndexDefs()
	assert.Len(t, defs, 5)

	assert.Equal(t, []string{"slug"}, defs["slug_unique"].Columns)
	assert.True(t, defs["slug_unique"].Unique)
	assert.Equal(t, []string{"author"}, defs["author_index"].Columns)
	assert.False(t, defs["author_index"].Unique)
	assert.True(t, defs["body_fulltext"].Fulltext)
	assert.Equal(t, []string{"slug", "author"}, defs["idx_a_b"].Columns)
	assert.True(t, defs["unq_a_b"].Unique)
}

func TestIndexDefEqual(t *testing.T) {
	a := IndexDef{Name: "i", Columns: []string{"A", "b"}}
	b := IndexDef{Name: "i", Columns: []string{"a", "B"}}
	assert.True(t, a.Equal(b))

	b.Unique = true
	assert.False(t, a.Equal(b))
}

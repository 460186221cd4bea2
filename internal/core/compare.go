package core

import "strings"

// integerTypes lists the tokens whose display width is cosmetic; MySQL
// 8.0.19+ stopped reporting it, so width differences are not changes.
var integerTypes = map[string]bool{
	"TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "INT": true, "BIGINT": true,
}

// ColumnChanged compares the canonical definitions of two columns:
// type token with length or values, UNSIGNED, nullability,
// AUTO_INCREMENT, default, and comment. JSON columns compare on
// nullability and comment only, because the observed rendering of json
// omits everything else.
func ColumnChanged(want, got *ColumnDef) bool {
	wantType := strings.ToUpper(want.Type)
	gotType := strings.ToUpper(got.Type)

	if wantType == "JSON" && gotType == "JSON" {
		return want.Nullable != got.Nullable || want.Comment != got.Comment
	}

	if wantType != gotType {
		return true
	}
	if !lengthsEqual(wantType, want, got) {
		return true
	}
	if !stringSlicesEqual(want.Values, got.Values) {
		return true
	}
	if want.Unsigned != got.Unsigned {
		return true
	}
	if want.Nullable != got.Nullable {
		return true
	}
	if want.AutoIncrement != got.AutoIncrement {
		return true
	}
	if !DefaultsEqual(want.Default, got.Default) {
		return true
	}
	return want.Comment != got.Comment
}

func lengthsEqual(typ string, want, got *ColumnDef) bool {
	if integerTypes[typ] {
		// Display width only; TINYINT(1) stays significant as the
		// boolean rendering.
		if typ == "TINYINT" && (want.Length == "1") != (got.Length == "1") {
			return false
		}
		return true
	}
	return want.Length == got.Length
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IndexDef is the flattened view of one declared index, shared by the
// reconciler and the differ.
type IndexDef struct {
	Name     string
	Columns  []string
	Unique   bool
	Fulltext bool
}

// Equal reports whether two index definitions match on columns,
// uniqueness, and kind.
func (d IndexDef) Equal(o IndexDef) bool {
	if d.Unique != o.Unique || d.Fulltext != o.Fulltext || len(d.Columns) != len(o.Columns) {
		return false
	}
	for i := range d.Columns {
		if !strings.EqualFold(d.Columns[i], o.Columns[i]) {
			return false
		}
	}
	return true
}

// IndexDefs flattens every declared index of the schema — composite,
// derived per-column, and fulltext — into one map keyed by index name.
func (s *Schema) IndexDefs() map[string]IndexDef {
	out := map[string]IndexDef{}

	for name, cols := range s.CompositeIndexes {
		out[name] = IndexDef{Name: name, Columns: cols}
	}
	for name, cols := range s.CompositeUniqueIndexes {
		out[name] = IndexDef{Name: name, Columns: cols, Unique: true}
	}
	for name, si := range s.SimpleIndexes() {
		out[name] = IndexDef{Name: name, Columns: []string{si.Column}, Unique: si.Unique}
	}
	for _, col := range s.FulltextColumns() {
		name := FulltextIndexName(col)
		out[name] = IndexDef{Name: name, Columns: []string{col}, Fulltext: true}
	}
	return out
}

// FulltextIndexName derives the conventional name of a single-column
// fulltext index.
func FulltextIndexName(column string) string {
	return column + "_fulltext"
}

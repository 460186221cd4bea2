package model

import (
	"regexp"
	"strconv"
	"strings"

	"schemasync/internal/core"
)

// annotation is one @-token with its raw argument text. Arguments run
// greedily to the end of the line or the next @-token.
type annotation struct {
	name string
	arg  string
}

// parseAnnotations tokenizes a comment block into annotations, scanning
// line by line so arguments never cross line boundaries. Text before the
// first @ on a line is plain prose and is skipped.
func parseAnnotations(lines []string) []annotation {
	var out []annotation
	for _, line := range lines {
		at := strings.IndexByte(line, '@')
		if at < 0 {
			continue
		}
		for _, chunk := range strings.Split(line[at+1:], "@") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			name, arg, _ := strings.Cut(chunk, " ")
			out = append(out, annotation{name: strings.ToLower(name), arg: strings.TrimSpace(arg)})
		}
	}
	return out
}

// typeDefaults maps each type annotation to its canonical token and the
// display length used when the annotation carries no argument.
var typeDefaults = map[string]struct {
	typ    string
	length string
}{
	"int":        {"INT", "11"},
	"bigint":     {"BIGINT", "20"},
	"tinyint":    {"TINYINT", "4"},
	"smallint":   {"SMALLINT", "6"},
	"mediumint":  {"MEDIUMINT", "9"},
	"decimal":    {"DECIMAL", "10,2"},
	"float":      {"FLOAT", ""},
	"double":     {"DOUBLE", ""},
	"varchar":    {"VARCHAR", "255"},
	"char":       {"CHAR", "255"},
	"text":       {"TEXT", ""},
	"mediumtext": {"MEDIUMTEXT", ""},
	"longtext":   {"LONGTEXT", ""},
	"datetime":   {"DATETIME", ""},
	"date":       {"DATE", ""},
	"time":       {"TIME", ""},
	"timestamp":  {"TIMESTAMP", ""},
	"year":       {"YEAR", ""},
	"json":       {"JSON", ""},
	"blob":       {"BLOB", ""},
	"mediumblob": {"MEDIUMBLOB", ""},
	"longblob":   {"LONGBLOB", ""},
	"point":      {"POINT", ""},
	"geometry":   {"GEOMETRY", ""},
	"linestring": {"LINESTRING", ""},
	"polygon":    {"POLYGON", ""},
}

var foreignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(([A-Za-z_][A-Za-z0-9_]*)\)$`)

// convertProperty interprets a property's annotations into a column
// definition. A property without @column is excluded and returns nil.
func convertProperty(prop *property) (*core.ColumnDef, error) {
	anns := parseAnnotations(prop.comment)
	if len(anns) == 0 {
		return nil, nil
	}

	included := false
	dropped := false
	for _, a := range anns {
		switch a.name {
		case "column":
			included = true
		case "drop":
			dropped = true
		}
	}
	// A dropped property carries no other meaning.
	if dropped {
		return &core.ColumnDef{Name: prop.name, Drop: true}, nil
	}
	if !included {
		return nil, nil
	}

	col := &core.ColumnDef{Name: prop.name}
	for _, a := range anns {
		if err := applyAnnotation(col, prop, a); err != nil {
			return nil, err
		}
	}

	if col.Type == "" {
		return nil, core.NewError(core.ErrInvalidModel,
			"model: property %q (line %d): @column requires a type annotation", prop.name, prop.line)
	}
	return col, nil
}

func applyAnnotation(col *core.ColumnDef, prop *property, a annotation) error {
	if td, ok := typeDefaults[a.name]; ok {
		col.Type = td.typ
		col.Length = td.length
		if a.arg != "" {
			col.Length = a.arg
		}
		return nil
	}

	switch a.name {
	case "column":
		// Inclusion marker, handled by the caller.

	case "enum", "set":
		col.Type = strings.ToUpper(a.name)
		col.Values = splitValues(a.arg)

	case "boolean", "bool":
		col.Type = "TINYINT"
		col.Length = "1"
		zero := "0"
		col.Default = &zero

	case "autonumber":
		col.Type = "INT"
		col.Length = "11"
		col.Unsigned = true
		col.AutoIncrement = true
		col.Primary = true

	case "uuid":
		col.Type = "CHAR"
		col.Length = "36"
		col.Primary = true

	case "primary":
		col.Primary = true
	case "unique":
		col.Unique = true
	case "index":
		col.Index = true
	case "fulltext":
		col.Fulltext = true
	case "nullable":
		col.Nullable = true
	case "unsigned":
		col.Unsigned = true
	case "first":
		col.First = true

	case "default":
		if a.arg == "" {
			return propErr(prop, "@default requires a value")
		}
		v := a.arg
		col.Default = &v

	case "comment":
		col.Comment = strings.Trim(a.arg, `"`)

	case "check":
		if a.arg == "" {
			return propErr(prop, "@check requires an expression")
		}
		col.Check = a.arg

	case "after":
		if !core.ValidIdentifier(a.arg) {
			return propErr(prop, "@after requires a column name")
		}
		col.After = a.arg

	case "rename":
		if !core.ValidIdentifier(a.arg) {
			return propErr(prop, "@rename requires the previous column name")
		}
		col.Rename = a.arg

	case "foreign":
		m := foreignRe.FindStringSubmatch(a.arg)
		if m == nil {
			return propErr(prop, "@foreign requires table(column)")
		}
		if col.Foreign == nil {
			col.Foreign = &core.ForeignKey{OnDelete: core.RefRestrict, OnUpdate: core.RefRestrict}
		}
		col.Foreign.RefTable = m[1]
		col.Foreign.RefColumn = m[2]

	case "ondelete", "onupdate":
		if !core.ValidRefAction(a.arg) {
			return propErr(prop, "unknown referential action %q", a.arg)
		}
		if col.Foreign == nil {
			col.Foreign = &core.ForeignKey{OnDelete: core.RefRestrict, OnUpdate: core.RefRestrict}
		}
		if a.name == "ondelete" {
			col.Foreign.OnDelete = core.NormalizeRefAction(a.arg)
		} else {
			col.Foreign.OnUpdate = core.NormalizeRefAction(a.arg)
		}

	default:
		return propErr(prop, "unknown annotation @%s", a.name)
	}
	return nil
}

func propErr(prop *property, format string, args ...any) error {
	return core.NewError(core.ErrInvalidModel,
		"model: property %q (line %d): "+format, append([]any{prop.name, prop.line}, args...)...)
}

func splitValues(arg string) []string {
	var out []string
	for _, v := range strings.Split(arg, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// class-level annotation handling ------------------------------------------

var compositeRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)?\s*\(([^)]+)\)$`)
var partitionRe = regexp.MustCompile(`(?i)^(hash|key|range|list)\(([A-Za-z_][A-Za-z0-9_]*)\)(?:\s+(\d+))?$`)

// applyClassAnnotations interprets the class-level comment block:
// table comment, composite indexes, and the partition clause.
func applyClassAnnotations(s *core.Schema, lines []string) error {
	for _, a := range parseAnnotations(lines) {
		switch a.name {
		case "tablecomment":
			s.TableComment = strings.Trim(a.arg, `"`)

		case "composite":
			name, cols, err := parseComposite(s, a.arg, false)
			if err != nil {
				return err
			}
			s.CompositeIndexes[name] = cols

		case "compositeunique":
			name, cols, err := parseComposite(s, a.arg, true)
			if err != nil {
				return err
			}
			s.CompositeUniqueIndexes[name] = cols

		case "partition":
			p, err := parsePartition(s, a.arg)
			if err != nil {
				return err
			}
			s.Partition = p

		default:
			return core.NewError(core.ErrInvalidModel,
				"model: table %q: unknown class annotation @%s", s.TableName, a.name)
		}
	}
	return nil
}

func parseComposite(s *core.Schema, arg string, unique bool) (string, []string, error) {
	m := compositeRe.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return "", nil, core.NewError(core.ErrInvalidModel,
			"model: table %q: composite index requires a parenthesized column list", s.TableName)
	}

	var cols []string
	for _, c := range strings.Split(m[2], ",") {
		c = strings.TrimSpace(c)
		if !core.ValidIdentifier(c) {
			return "", nil, core.NewError(core.ErrInvalidModel,
				"model: table %q: invalid composite index column %q", s.TableName, c)
		}
		cols = append(cols, c)
	}
	if len(cols) < 2 {
		return "", nil, core.NewError(core.ErrInvalidModel,
			"model: table %q: composite index needs at least two columns", s.TableName)
	}

	name := m[1]
	if name == "" {
		name = core.CompositeIndexName(cols, unique)
	}
	return name, cols, nil
}

func parsePartition(s *core.Schema, arg string) (*core.Partition, error) {
	m := partitionRe.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return nil, core.NewError(core.ErrInvalidModel,
			"model: table %q: @partition requires kind(column) and a count for hash/key", s.TableName)
	}

	kind := core.PartitionKind(strings.ToUpper(m[1]))
	p := &core.Partition{Kind: kind, Column: m[2]}

	switch kind {
	case core.PartitionHash, core.PartitionKey:
		if m[3] == "" {
			return nil, core.NewError(core.ErrInvalidModel,
				"model: table %q: @partition %s requires a partition count", s.TableName, strings.ToLower(m[1]))
		}
		n, err := strconv.Atoi(m[3])
		if err != nil || n <= 0 {
			return nil, core.NewError(core.ErrInvalidModel,
				"model: table %q: invalid partition count %q", s.TableName, m[3])
		}
		p.Count = n
	case core.PartitionRange, core.PartitionList:
		// Accepted by the parser; the DDL generator rejects these kinds.
	}
	return p, nil
}

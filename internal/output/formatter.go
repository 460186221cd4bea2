package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
	"schemasync/internal/diff"
)

// Format is an enum of the available output formats for scripts and
// plans.
type Format string

const (
	FormatSQL  Format = "sql"
	FormatJSON Format = "json"
)

// Formatter renders differ scripts, plans, and observed schemas for
// files or pipelines.
type Formatter interface {
	FormatScript(*diff.Script) (string, error)
	FormatPlan(*core.Plan) (string, error)
	FormatSchemas([]*core.Schema) (string, error)
}

// NewFormatter returns the formatter for the given name, defaulting to
// SQL.
func NewFormatter(name string) (Formatter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q; use 'sql' or 'json'", name)
	}
}

type sqlFormatter struct{}

// FormatScript renders the up script with the down script as trailing
// comments, so the output is directly executable.
func (sqlFormatter) FormatScript(s *diff.Script) (string, error) {
	if s == nil {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("-- schemasync migration\n")

	if len(s.Up) == 0 {
		b.WriteString("\n-- No statements generated.\n")
		return b.String(), nil
	}

	b.WriteString("\n-- UP\n")
	writeStatements(&b, s.Up, "")

	if len(s.Down) > 0 {
		b.WriteString("\n-- DOWN (run separately to revert)\n")
		writeStatements(&b, s.Down, "-- ")
	}
	return b.String(), nil
}

// FormatPlan renders the plan's statements with destructive changes
// summarized up front.
func (sqlFormatter) FormatPlan(p *core.Plan) (string, error) {
	if p == nil {
		return "", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- plan for %s\n", p.Table)
	for _, d := range p.DroppedColumns {
		fmt.Fprintf(&b, "-- drops column %s (%s)\n", d.Name, d.Reason)
	}
	for _, r := range p.RenamedColumns {
		fmt.Fprintf(&b, "-- renames column %s to %s\n", r.Old, r.New)
	}

	if p.IsEmpty() {
		b.WriteString("\n-- No statements generated.\n")
		return b.String(), nil
	}

	b.WriteString("\n")
	writeStatements(&b, p.SQLStatements(), "")
	return b.String(), nil
}

// FormatSchemas renders each schema as its CREATE TABLE statement.
func (sqlFormatter) FormatSchemas(schemas []*core.Schema) (string, error) {
	var b strings.Builder
	for i, s := range schemas {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ddl.CreateTable(s))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeStatements(b *strings.Builder, stmts []string, prefix string) {
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(stmt)
		if !strings.HasSuffix(stmt, ";") {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
}

type jsonFormatter struct{}

type jsonScript struct {
	Format  string   `json:"format"`
	Up      []string `json:"up"`
	Down    []string `json:"down"`
	Summary struct {
		UpStatements   int `json:"upStatements"`
		DownStatements int `json:"downStatements"`
	} `json:"summary"`
}

func (jsonFormatter) FormatScript(s *diff.Script) (string, error) {
	out := jsonScript{Format: "json", Up: []string{}, Down: []string{}}
	if s != nil {
		out.Up = append(out.Up, s.Up...)
		out.Down = append(out.Down, s.Down...)
	}
	out.Summary.UpStatements = len(out.Up)
	out.Summary.DownStatements = len(out.Down)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal script: %w", err)
	}
	return string(data) + "\n", nil
}

type jsonPlan struct {
	Format     string               `json:"format"`
	Table      string               `json:"table"`
	Statements []jsonPlanStatement  `json:"statements"`
	Dropped    []core.DroppedColumn `json:"droppedColumns,omitempty"`
	Renamed    []core.RenamedColumn `json:"renamedColumns,omitempty"`
}

type jsonPlanStatement struct {
	SQL    string `json:"sql"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

type jsonSchema struct {
	Table     string       `json:"table"`
	Comment   string       `json:"comment,omitempty"`
	Engine    string       `json:"engine"`
	Charset   string       `json:"charset"`
	Collation string       `json:"collation"`
	Columns   []jsonColumn `json:"columns"`
	Partition *jsonPart    `json:"partition,omitempty"`

	CompositeIndexes       map[string][]string `json:"compositeIndexes,omitempty"`
	CompositeUniqueIndexes map[string][]string `json:"compositeUniqueIndexes,omitempty"`
}

type jsonColumn struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Length        string   `json:"length,omitempty"`
	Values        []string `json:"values,omitempty"`
	Primary       bool     `json:"primary,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	Nullable      bool     `json:"nullable,omitempty"`
	Unsigned      bool     `json:"unsigned,omitempty"`
	AutoIncrement bool     `json:"autoIncrement,omitempty"`
	Index         bool     `json:"index,omitempty"`
	Fulltext      bool     `json:"fulltext,omitempty"`
	Default       *string  `json:"default,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	Foreign       *jsonFK  `json:"foreign,omitempty"`
}

type jsonFK struct {
	RefTable  string `json:"refTable"`
	RefColumn string `json:"refColumn"`
	OnDelete  string `json:"onDelete"`
	OnUpdate  string `json:"onUpdate"`
}

type jsonPart struct {
	Kind   string `json:"kind"`
	Column string `json:"column"`
	Count  int    `json:"count,omitempty"`
}

// FormatSchemas marshals the schemas in their IR shape.
func (jsonFormatter) FormatSchemas(schemas []*core.Schema) (string, error) {
	out := make([]jsonSchema, 0, len(schemas))
	for _, s := range schemas {
		js := jsonSchema{
			Table:                  s.TableName,
			Comment:                s.TableComment,
			Engine:                 s.Engine,
			Charset:                s.Charset,
			Collation:              s.Collation,
			CompositeIndexes:       s.CompositeIndexes,
			CompositeUniqueIndexes: s.CompositeUniqueIndexes,
		}
		if len(js.CompositeIndexes) == 0 {
			js.CompositeIndexes = nil
		}
		if len(js.CompositeUniqueIndexes) == 0 {
			js.CompositeUniqueIndexes = nil
		}
		if s.Partition != nil {
			js.Partition = &jsonPart{
				Kind: string(s.Partition.Kind), Column: s.Partition.Column, Count: s.Partition.Count,
			}
		}
		for _, c := range s.Columns {
			if c.Drop {
				continue
			}
			jc := jsonColumn{
				Name: c.Name, Type: c.Type, Length: c.Length, Values: c.Values,
				Primary: c.Primary, Unique: c.Unique, Nullable: c.Nullable,
				Unsigned: c.Unsigned, AutoIncrement: c.AutoIncrement,
				Index: c.Index, Fulltext: c.Fulltext,
				Default: c.Default, Comment: c.Comment,
			}
			if c.Foreign != nil {
				jc.Foreign = &jsonFK{
					RefTable:  c.Foreign.RefTable,
					RefColumn: c.Foreign.RefColumn,
					OnDelete:  string(c.Foreign.OnDelete),
					OnUpdate:  string(c.Foreign.OnUpdate),
				}
			}
			js.Columns = append(js.Columns, jc)
		}
		out = append(out, js)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schemas: %w", err)
	}
	return string(data) + "\n", nil
}

func (jsonFormatter) FormatPlan(p *core.Plan) (string, error) {
	out := jsonPlan{Format: "json", Statements: []jsonPlanStatement{}}
	if p != nil {
		out.Table = p.Table
		out.Dropped = p.DroppedColumns
		out.Renamed = p.RenamedColumns
		for _, st := range p.Statements {
			out.Statements = append(out.Statements, jsonPlanStatement{
				SQL: st.SQL, Kind: string(st.Kind), Target: st.Target,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}
	return string(data) + "\n", nil
}

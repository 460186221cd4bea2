// Package model parses annotated model definition files into the core
// schema representation. A model file declares one class-like block
// whose properties carry @-annotations inside comment blocks; the
// parser only needs to enumerate (property, comment block) pairs plus
// the class-level comment block and the table / timestamps keys.
package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"schemasync/internal/core"
)

// Parser reads model definition files.
type Parser struct{}

// NewParser creates a model file parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens and parses the model file at path.
func (p *Parser) ParseFile(path string) (*core.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// property is one (name, comment block) pair lifted from the source.
type property struct {
	name    string
	comment []string
	line    int
}

// source is the structural view of a model file before annotation
// interpretation: the class block, the class-level keys, and the
// ordered property list.
type source struct {
	modelName    string
	classComment []string
	table        string
	timestamps   bool
	properties   []property
}

// Parse reads a model definition and returns the schema it declares.
func (p *Parser) Parse(r io.Reader) (*core.Schema, error) {
	src, err := scan(r)
	if err != nil {
		return nil, err
	}
	return newConverter(src).convert()
}

// scan lifts the structural shape out of the source text. Annotations
// are not interpreted here.
func scan(r io.Reader) (*source, error) {
	src := &source{}
	var pending []string
	inBody := false
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			pending = nil

		case strings.HasPrefix(line, "//"):
			pending = append(pending, strings.TrimSpace(strings.TrimPrefix(line, "//")))

		case strings.HasPrefix(line, "model "):
			if inBody {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: nested model declaration", lineNo)
			}
			name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "model "), "{"))
			if !core.ValidIdentifier(name) {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: invalid model name %q", lineNo, name)
			}
			src.modelName = name
			src.classComment = pending
			pending = nil
			inBody = true

		case line == "}":
			if !inBody {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: unexpected closing brace", lineNo)
			}
			inBody = false

		case strings.Contains(line, "="):
			if !inBody {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: assignment outside model body", lineNo)
			}
			if err := src.applyAssignment(line, lineNo); err != nil {
				return nil, err
			}
			pending = nil

		default:
			if !inBody {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: unexpected text %q", lineNo, line)
			}
			if !core.ValidIdentifier(line) {
				return nil, core.NewError(core.ErrInvalidModel, "model: line %d: invalid property name %q", lineNo, line)
			}
			src.properties = append(src.properties, property{name: line, comment: pending, line: lineNo})
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("model: read: %w", err)
	}

	if src.modelName == "" {
		return nil, core.NewError(core.ErrInvalidModel, "model: no model declaration found")
	}
	if inBody {
		return nil, core.NewError(core.ErrInvalidModel, "model: unterminated model body")
	}
	return src, nil
}

func (s *source) applyAssignment(line string, lineNo int) error {
	key, value, _ := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "table":
		s.table = strings.Trim(value, `"`)
		if !core.ValidIdentifier(s.table) {
			return core.NewError(core.ErrInvalidModel, "model: line %d: invalid table name %q", lineNo, s.table)
		}
	case "timestamps":
		switch value {
		case "true":
			s.timestamps = true
		case "false":
			s.timestamps = false
		default:
			return core.NewError(core.ErrInvalidModel, "model: line %d: timestamps must be true or false, got %q", lineNo, value)
		}
	default:
		return core.NewError(core.ErrInvalidModel, "model: line %d: unknown model key %q", lineNo, key)
	}
	return nil
}

// converter turns the structural view into a validated schema.
type converter struct {
	src *source
}

func newConverter(src *source) *converter {
	return &converter{src: src}
}

func (c *converter) convert() (*core.Schema, error) {
	table := c.src.table
	if table == "" {
		table = strings.ToLower(c.src.modelName)
	}

	schema := core.NewSchema(table)
	schema.Timestamps = c.src.timestamps

	if err := applyClassAnnotations(schema, c.src.classComment); err != nil {
		return nil, err
	}

	for i := range c.src.properties {
		prop := &c.src.properties[i]
		col, err := convertProperty(prop)
		if err != nil {
			return nil, err
		}
		if col == nil {
			continue
		}
		schema.Columns = append(schema.Columns, col)
	}

	if c.src.timestamps {
		injectTimestamps(schema)
	}

	return schema, nil
}

// injectTimestamps adds the managed created_at / updated_at columns when
// the model does not declare them itself.
func injectTimestamps(s *core.Schema) {
	now := "CURRENT_TIMESTAMP"
	for _, name := range []string{"created_at", "updated_at"} {
		if s.FindColumn(name) != nil {
			continue
		}
		def := now
		s.Columns = append(s.Columns, &core.ColumnDef{
			Name:    name,
			Type:    "TIMESTAMP",
			Default: &def,
		})
	}
}

// Package sqlschema parses SQL schema dumps (CREATE TABLE statements)
// into the core schema representation. It feeds the differ with stored
// definitions: a committed schema file on one side, the live database
// read back on the other. Parsing uses TiDB's SQL parser, so both MySQL
// and TiDB syntax are accepted.
package sqlschema

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"schemasync/internal/core"
)

// Parser converts schema dump text into schema sets.
type Parser struct {
	p *parser.Parser
}

// NewParser creates a schema dump parser.
func NewParser() *Parser {
	return &Parser{p: parser.New()}
}

// ParseFile parses the dump file at path.
func (p *Parser) ParseFile(path string) (core.SchemaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sqlschema: read %q: %w", path, err)
	}
	return p.Parse(string(data))
}

// Parse extracts every CREATE TABLE statement from the SQL text; other
// statements (inserts, session settings) are ignored.
func (p *Parser) Parse(sqlText string) (core.SchemaSet, error) {
	stmtNodes, _, err := p.p.Parse(sqlText, "", "")
	if err != nil {
		return nil, fmt.Errorf("sqlschema: parse: %w", err)
	}

	set := core.SchemaSet{}
	for _, stmt := range stmtNodes {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		schema, err := p.convertCreateTable(create)
		if err != nil {
			return nil, err
		}
		set[schema.TableName] = schema
	}
	return set, nil
}

func (p *Parser) convertCreateTable(stmt *ast.CreateTableStmt) (*core.Schema, error) {
	schema := core.NewSchema(stmt.Table.Name.O)

	p.applyTableOptions(stmt.Options, schema)
	p.convertColumns(stmt.Cols, schema)
	p.convertConstraints(stmt.Constraints, schema)

	if stmt.Partition != nil {
		partition, err := p.convertPartition(stmt.Partition)
		if err != nil {
			return nil, fmt.Errorf("sqlschema: table %q: %w", schema.TableName, err)
		}
		schema.Partition = partition
	}

	return schema, nil
}

func (p *Parser) applyTableOptions(opts []*ast.TableOption, schema *core.Schema) {
	for _, opt := range opts {
		switch opt.Tp {
		case ast.TableOptionComment:
			schema.TableComment = opt.StrValue
		case ast.TableOptionEngine:
			schema.Engine = opt.StrValue
		case ast.TableOptionCharset:
			schema.Charset = opt.StrValue
		case ast.TableOptionCollate:
			schema.Collation = opt.StrValue
		}
	}
}

func (p *Parser) convertColumns(cols []*ast.ColumnDef, schema *core.Schema) {
	for _, colDef := range cols {
		typ, length, values, unsigned := core.ParseColumnType(colDef.Tp.String())
		col := &core.ColumnDef{
			Name:     colDef.Name.Name.O,
			Type:     typ,
			Length:   length,
			Values:   values,
			Unsigned: unsigned,
			Nullable: true,
		}

		for _, opt := range colDef.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				col.Nullable = false
			case ast.ColumnOptionNull:
				col.Nullable = true
			case ast.ColumnOptionPrimaryKey:
				col.Primary = true
				col.Nullable = false
			case ast.ColumnOptionAutoIncrement:
				col.AutoIncrement = true
			case ast.ColumnOptionDefaultValue:
				col.Default = p.exprToString(opt.Expr)
			case ast.ColumnOptionUniqKey:
				col.Unique = true
			case ast.ColumnOptionComment:
				if s := p.exprToString(opt.Expr); s != nil {
					col.Comment = *s
				}
			case ast.ColumnOptionCheck:
				if s := p.exprToString(opt.Expr); s != nil {
					col.Check = *s
				}
			case ast.ColumnOptionReference:
				if fk := p.convertReference(opt.Refer); fk != nil {
					col.Foreign = fk
				}
			}
		}

		schema.Columns = append(schema.Columns, col)
	}
}

func (p *Parser) convertReference(refer *ast.ReferenceDef) *core.ForeignKey {
	if refer == nil || refer.Table == nil {
		return nil
	}
	fk := &core.ForeignKey{
		RefTable: refer.Table.Name.O,
		OnDelete: core.RefRestrict,
		OnUpdate: core.RefRestrict,
	}
	for _, spec := range refer.IndexPartSpecifications {
		if spec.Column != nil {
			fk.RefColumn = spec.Column.Name.O
			break
		}
	}
	if refer.OnDelete != nil && refer.OnDelete.ReferOpt != 0 {
		fk.OnDelete = core.NormalizeRefAction(refer.OnDelete.ReferOpt.String())
	}
	if refer.OnUpdate != nil && refer.OnUpdate.ReferOpt != 0 {
		fk.OnUpdate = core.NormalizeRefAction(refer.OnUpdate.ReferOpt.String())
	}
	return fk
}

func (p *Parser) convertConstraints(constraints []*ast.Constraint, schema *core.Schema) {
	for _, constraint := range constraints {
		cols := constraintColumns(constraint)

		switch constraint.Tp {
		case ast.ConstraintPrimaryKey:
			for _, name := range cols {
				if col := schema.FindColumn(name); col != nil {
					col.Primary = true
					col.Nullable = false
				}
			}

		case ast.ConstraintKey, ast.ConstraintIndex:
			p.placeIndex(schema, constraint.Name, cols, false)

		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			p.placeIndex(schema, constraint.Name, cols, true)

		case ast.ConstraintFulltext:
			if len(cols) == 1 {
				if col := schema.FindColumn(cols[0]); col != nil {
					col.Fulltext = true
				}
			}

		case ast.ConstraintForeignKey:
			if len(cols) != 1 || constraint.Refer == nil {
				continue
			}
			if col := schema.FindColumn(cols[0]); col != nil {
				col.Foreign = p.convertReference(constraint.Refer)
			}
		}
	}
}

// placeIndex collapses conventionally named single-column indexes onto
// column attributes and keeps everything else in the composite maps, so
// the round trip through the generator preserves index names.
func (p *Parser) placeIndex(schema *core.Schema, name string, cols []string, unique bool) {
	if len(cols) == 1 && (name == "" || name == core.SimpleIndexName(cols[0], unique)) {
		if col := schema.FindColumn(cols[0]); col != nil {
			if unique {
				col.Unique = true
			} else {
				col.Index = true
			}
			return
		}
	}

	if name == "" {
		name = core.CompositeIndexName(cols, unique)
	}
	if unique {
		schema.CompositeUniqueIndexes[name] = cols
	} else {
		schema.CompositeIndexes[name] = cols
	}
}

func constraintColumns(constraint *ast.Constraint) []string {
	var cols []string
	for _, key := range constraint.Keys {
		if key.Column != nil {
			cols = append(cols, key.Column.Name.O)
		}
	}
	return cols
}

// partitionRe reads the restored PARTITION BY clause; going through the
// restored text keeps this code independent of parser-internal enum
// packages.
var partitionRe = regexp.MustCompile(`(?i)PARTITION BY\s+(LINEAR\s+)?(HASH|KEY|RANGE|LIST)\s*(?:COLUMNS)?\s*\(([^)]*)\)(?:\s+PARTITIONS\s+(\d+))?`)

func (p *Parser) convertPartition(node *ast.PartitionOptions) (*core.Partition, error) {
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := node.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore partition clause: %w", err)
	}

	m := partitionRe.FindStringSubmatch(sb.String())
	if m == nil {
		return nil, fmt.Errorf("unsupported partition clause %q", sb.String())
	}

	partition := &core.Partition{
		Kind:   core.PartitionKind(strings.ToUpper(m[2])),
		Column: strings.Trim(strings.TrimSpace(m[3]), "`"),
	}
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, fmt.Errorf("invalid partition count %q", m[4])
		}
		partition.Count = n
	}
	return partition, nil
}

func (p *Parser) exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}

	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(ctx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())

	// The restorer renders the timestamp default as a call expression.
	if strings.EqualFold(s, "CURRENT_TIMESTAMP()") {
		s = "CURRENT_TIMESTAMP"
	}

	if unquoted, ok := unquoteLiteral(s); ok {
		return &unquoted
	}
	return &s
}

// unquoteLiteral strips the quotes (and any leading charset introducer
// like _UTF8MB4) from a restored string literal.
func unquoteLiteral(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[len(s)-1] != '\'' {
		return "", false
	}

	start := strings.IndexByte(s, '\'')
	if start < 0 {
		return "", false
	}
	if start > 0 && !strings.HasPrefix(s, "_") {
		return "", false
	}
	return strings.ReplaceAll(s[start+1:len(s)-1], "''", "'"), true
}

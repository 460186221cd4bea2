package ddl

import (
	"fmt"
	"strings"

	"schemasync/internal/core"
)

// CreateTable serialises a schema into a CREATE TABLE statement. The
// form is stable: column clauses indented by two spaces, then key
// clauses in the order primary key, per-column unique keys, per-column
// keys, composite non-unique, composite unique, fulltext, foreign keys.
// Reading the created table back through the inspector yields the same
// schema, to the extent MySQL preserves it.
func CreateTable(s *core.Schema) string {
	var lines []string

	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		lines = append(lines, "  "+ColumnClause(c))
	}

	if pk := s.PrimaryColumns(); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", quoteJoin(pk)))
	}

	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if c.Unique {
			lines = append(lines, fmt.Sprintf("  UNIQUE KEY %s (%s)",
				QuoteIdentifier(core.SimpleIndexName(c.Name, true)), QuoteIdentifier(c.Name)))
		}
	}
	for _, c := range s.Columns {
		if c.Drop {
			continue
		}
		if c.Index {
			lines = append(lines, fmt.Sprintf("  KEY %s (%s)",
				QuoteIdentifier(core.SimpleIndexName(c.Name, false)), QuoteIdentifier(c.Name)))
		}
	}

	for _, name := range core.SortedKeys(s.CompositeIndexes) {
		lines = append(lines, fmt.Sprintf("  KEY %s (%s)",
			QuoteIdentifier(name), quoteJoin(s.CompositeIndexes[name])))
	}
	for _, name := range core.SortedKeys(s.CompositeUniqueIndexes) {
		lines = append(lines, fmt.Sprintf("  UNIQUE KEY %s (%s)",
			QuoteIdentifier(name), quoteJoin(s.CompositeUniqueIndexes[name])))
	}

	for _, col := range s.FulltextColumns() {
		lines = append(lines, fmt.Sprintf("  FULLTEXT KEY %s (%s)",
			QuoteIdentifier(FulltextIndexName(col)), QuoteIdentifier(col)))
	}

	for _, c := range s.ForeignKeys() {
		fk := c.Foreign
		lines = append(lines, fmt.Sprintf("  CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s",
			QuoteIdentifier(ForeignKeyName(s.TableName, c.Name)),
			QuoteIdentifier(c.Name),
			QuoteIdentifier(fk.RefTable),
			QuoteIdentifier(fk.RefColumn),
			actionOrRestrict(fk.OnDelete),
			actionOrRestrict(fk.OnUpdate)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)%s;",
		QuoteIdentifier(s.TableName), strings.Join(lines, ",\n"), tableOptions(s))
}

func tableOptions(s *core.Schema) string {
	engine := s.Engine
	if engine == "" {
		engine = core.DefaultEngine
	}
	charset := s.Charset
	if charset == "" {
		charset = core.DefaultCharset
	}
	collation := s.Collation
	if collation == "" {
		collation = core.DefaultCollation
	}

	opts := fmt.Sprintf(" ENGINE=%s DEFAULT CHARSET=%s COLLATE=%s", engine, charset, collation)
	if s.TableComment != "" {
		opts += " COMMENT=" + core.QuoteLiteral(s.TableComment)
	}
	if s.Partition != nil {
		opts += " " + PartitionClause(s.Partition)
	}
	return opts
}

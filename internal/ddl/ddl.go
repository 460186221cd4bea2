// Package ddl renders schema definitions into MySQL DDL text. It is the
// only place that concatenates SQL for structural statements; every
// identifier that reaches it has already passed the core identifier
// check.
package ddl

import (
	"fmt"
	"strings"

	"schemasync/internal/core"
)

// QuoteIdentifier wraps an identifier in backticks, doubling any
// embedded backtick.
func QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// ForeignKeyName derives the conventional constraint name for a
// single-column foreign key.
func ForeignKeyName(table, column string) string {
	return fmt.Sprintf("fk_%s_%s", table, column)
}

// FulltextIndexName derives the conventional name of a single-column
// fulltext index.
func FulltextIndexName(column string) string {
	return core.FulltextIndexName(column)
}

// TypeClause renders the type portion of a column definition:
// "VARCHAR(255)", "DECIMAL(10,2)", "ENUM('a','b')", "INT(11) UNSIGNED".
func TypeClause(c *core.ColumnDef) string {
	var b strings.Builder
	typ := strings.ToUpper(c.Type)
	b.WriteString(typ)

	switch typ {
	case "ENUM", "SET":
		b.WriteByte('(')
		for i, v := range c.Values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(core.QuoteLiteral(v))
		}
		b.WriteByte(')')
	default:
		if c.Length != "" {
			b.WriteByte('(')
			b.WriteString(c.Length)
			b.WriteByte(')')
		}
	}

	if c.Unsigned {
		b.WriteString(" UNSIGNED")
	}
	return b.String()
}

// ColumnClause renders a full column definition without the leading
// ADD/MODIFY verb: name, type, nullability, auto-increment, default,
// comment, and check constraint.
func ColumnClause(c *core.ColumnDef) string {
	parts := []string{QuoteIdentifier(c.Name), TypeClause(c)}

	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}

	if c.Default != nil {
		parts = append(parts, "DEFAULT", core.NormalizeDefault(*c.Default))
	}

	if c.Comment != "" {
		parts = append(parts, "COMMENT", core.QuoteLiteral(c.Comment))
	}

	if c.Check != "" {
		parts = append(parts, fmt.Sprintf("CHECK (%s)", c.Check))
	}

	return strings.Join(parts, " ")
}

// positionClause renders FIRST / AFTER for ALTER statements.
func positionClause(c *core.ColumnDef) string {
	if c.First {
		return " FIRST"
	}
	if c.After != "" {
		return " AFTER " + QuoteIdentifier(c.After)
	}
	return ""
}

// AddColumn renders ALTER TABLE ... ADD COLUMN with the positional hint.
func AddColumn(table string, c *core.ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s%s;",
		QuoteIdentifier(table), ColumnClause(c), positionClause(c))
}

// DropColumn renders ALTER TABLE ... DROP COLUMN.
func DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;",
		QuoteIdentifier(table), QuoteIdentifier(column))
}

// ModifyColumn renders ALTER TABLE ... MODIFY COLUMN.
func ModifyColumn(table string, c *core.ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
		QuoteIdentifier(table), ColumnClause(c))
}

// ChangeColumn renders ALTER TABLE ... CHANGE, renaming old to the
// definition's name.
func ChangeColumn(table, old string, c *core.ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s CHANGE %s %s;",
		QuoteIdentifier(table), QuoteIdentifier(old), ColumnClause(c))
}

// AddForeignKey renders the ADD CONSTRAINT ... FOREIGN KEY statement for
// a column-level FK, using the conventional constraint name.
func AddForeignKey(table string, c *core.ColumnDef) string {
	fk := c.Foreign
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s;",
		QuoteIdentifier(table),
		QuoteIdentifier(ForeignKeyName(table, c.Name)),
		QuoteIdentifier(c.Name),
		QuoteIdentifier(fk.RefTable),
		QuoteIdentifier(fk.RefColumn),
		actionOrRestrict(fk.OnDelete),
		actionOrRestrict(fk.OnUpdate))
}

// DropForeignKey renders ALTER TABLE ... DROP FOREIGN KEY.
func DropForeignKey(table, constraint string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;",
		QuoteIdentifier(table), QuoteIdentifier(constraint))
}

func actionOrRestrict(a core.RefAction) string {
	if a == "" {
		return string(core.RefRestrict)
	}
	return string(a)
}

// AddIndex renders ALTER TABLE ... ADD [UNIQUE] INDEX over one or more
// columns.
func AddIndex(table, name string, columns []string, unique bool) string {
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s (%s);",
		QuoteIdentifier(table), kind, QuoteIdentifier(name), quoteJoin(columns))
}

// AddFulltextIndex renders ALTER TABLE ... ADD FULLTEXT INDEX.
func AddFulltextIndex(table, name string, columns []string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD FULLTEXT INDEX %s (%s);",
		QuoteIdentifier(table), QuoteIdentifier(name), quoteJoin(columns))
}

// DropIndex renders ALTER TABLE ... DROP INDEX.
func DropIndex(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s;",
		QuoteIdentifier(table), QuoteIdentifier(name))
}

// PartitionClause renders the PARTITION BY fragment for HASH / KEY
// partitioning.
func PartitionClause(p *core.Partition) string {
	return fmt.Sprintf("PARTITION BY %s(%s) PARTITIONS %d",
		p.Kind, QuoteIdentifier(p.Column), p.Count)
}

// PartitionBy renders the ALTER statement installing or replacing a
// partition layout.
func PartitionBy(table string, p *core.Partition) string {
	return fmt.Sprintf("ALTER TABLE %s %s;", QuoteIdentifier(table), PartitionClause(p))
}

// RemovePartitioning renders ALTER TABLE ... REMOVE PARTITIONING.
func RemovePartitioning(table string) string {
	return fmt.Sprintf("ALTER TABLE %s REMOVE PARTITIONING;", QuoteIdentifier(table))
}

// CheckConstraintName derives the conventional name of a column check
// constraint.
func CheckConstraintName(table, column string) string {
	return fmt.Sprintf("chk_%s_%s", table, column)
}

// AddCheck renders ALTER TABLE ... ADD CONSTRAINT ... CHECK.
func AddCheck(table, name, expr string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
		QuoteIdentifier(table), QuoteIdentifier(name), expr)
}

// DropCheck renders ALTER TABLE ... DROP CHECK.
func DropCheck(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CHECK %s;",
		QuoteIdentifier(table), QuoteIdentifier(name))
}

// DropTableIfExists renders the guarded table drop used before CREATE.
func DropTableIfExists(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteIdentifier(table))
}

// DropTable renders an unguarded DROP TABLE.
func DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE %s;", QuoteIdentifier(table))
}

// RenameTable renders RENAME TABLE old TO new.
func RenameTable(old, new string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s;", QuoteIdentifier(old), QuoteIdentifier(new))
}

// TruncateRows renders the structure-preserving row wipe.
func TruncateRows(table string) string {
	return fmt.Sprintf("DELETE FROM %s;", QuoteIdentifier(table))
}

func quoteJoin(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	return strings.Join(quoted, ",")
}

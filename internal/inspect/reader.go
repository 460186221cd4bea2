package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// Reader exposes the observed schema of the connected database.
type Reader struct {
	c conn.Connection
}

// NewReader creates a reader over the given connection.
func NewReader(c conn.Connection) *Reader {
	return &Reader{c: c}
}

// TableExists reports whether the table exists in the connected schema.
func (r *Reader) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := r.c.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, r.c.Database(), table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect: table existence %q: %w", table, err)
	}
	return n > 0, nil
}

// Columns reads the ordered column list via SHOW FULL COLUMNS.
func (r *Reader) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := r.c.Query(ctx, "SHOW FULL COLUMNS FROM "+ddl.QuoteIdentifier(table))
	if err != nil {
		return nil, fmt.Errorf("inspect: columns of %q: %w", table, err)
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			c          Column
			collation  sql.NullString
			nullable   string
			defaultVal sql.NullString
			privileges string
		)
		if err := rows.Scan(&c.Name, &c.Type, &collation, &nullable, &c.Key,
			&defaultVal, &c.Extra, &privileges, &c.Comment); err != nil {
			return nil, fmt.Errorf("inspect: scan column of %q: %w", table, err)
		}
		c.Collation = collation.String
		c.Nullable = strings.EqualFold(nullable, "YES")
		if defaultVal.Valid {
			v := defaultVal.String
			c.Default = &v
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect: columns of %q: %w", table, err)
	}
	return out, nil
}

// Indexes reads every index of the table keyed by name, with columns in
// sequence order.
func (r *Reader) Indexes(ctx context.Context, table string) (map[string]Index, error) {
	rows, err := r.c.Query(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE, IFNULL(INDEX_TYPE, 'BTREE')
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`, r.c.Database(), table)
	if err != nil {
		return nil, fmt.Errorf("inspect: indexes of %q: %w", table, err)
	}
	defer rows.Close()

	out := map[string]Index{}
	for rows.Next() {
		var (
			name, col, idxType string
			nonUnique          bool
		)
		if err := rows.Scan(&name, &col, &nonUnique, &idxType); err != nil {
			return nil, fmt.Errorf("inspect: scan index of %q: %w", table, err)
		}
		idx := out[name]
		idx.Name = name
		idx.Columns = append(idx.Columns, col)
		idx.Unique = !nonUnique
		idx.Fulltext = strings.EqualFold(idxType, "FULLTEXT")
		out[name] = idx
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect: indexes of %q: %w", table, err)
	}
	return out, nil
}

// PrimaryKey returns the ordered column list of the PRIMARY index, or
// nil when the table has none.
func (r *Reader) PrimaryKey(ctx context.Context, table string) ([]string, error) {
	indexes, err := r.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	pk, ok := indexes["PRIMARY"]
	if !ok {
		return nil, nil
	}
	return pk.Columns, nil
}

// ForeignKeys reads the table's foreign keys keyed by constraint name,
// joining KEY_COLUMN_USAGE with REFERENTIAL_CONSTRAINTS for the
// referential actions.
func (r *Reader) ForeignKeys(ctx context.Context, table string) (map[string]ForeignKey, error) {
	rows, err := r.c.Query(ctx, `
		SELECT k.CONSTRAINT_NAME, k.COLUMN_NAME, k.REFERENCED_TABLE_NAME,
		       k.REFERENCED_COLUMN_NAME, r.DELETE_RULE, r.UPDATE_RULE
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.REFERENTIAL_CONSTRAINTS r
		  ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA
		 AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
		WHERE k.TABLE_SCHEMA = ? AND k.TABLE_NAME = ?
		  AND k.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY k.CONSTRAINT_NAME
	`, r.c.Database(), table)
	if err != nil {
		return nil, fmt.Errorf("inspect: foreign keys of %q: %w", table, err)
	}
	defer rows.Close()

	out := map[string]ForeignKey{}
	for rows.Next() {
		var name string
		var fk ForeignKey
		var onDelete, onUpdate string
		if err := rows.Scan(&name, &fk.Column, &fk.RefTable, &fk.RefColumn, &onDelete, &onUpdate); err != nil {
			return nil, fmt.Errorf("inspect: scan foreign key of %q: %w", table, err)
		}
		fk.OnDelete = core.NormalizeRefAction(onDelete)
		fk.OnUpdate = core.NormalizeRefAction(onUpdate)
		out[name] = fk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect: foreign keys of %q: %w", table, err)
	}
	return out, nil
}

// Partition returns the observed partition layout, or nil when the
// table is unpartitioned.
func (r *Reader) Partition(ctx context.Context, table string) (*core.Partition, error) {
	rows, err := r.c.Query(ctx, `
		SELECT PARTITION_METHOD, PARTITION_EXPRESSION, COUNT(*)
		FROM information_schema.PARTITIONS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND PARTITION_NAME IS NOT NULL
		GROUP BY PARTITION_METHOD, PARTITION_EXPRESSION
	`, r.c.Database(), table)
	if err != nil {
		return nil, fmt.Errorf("inspect: partition of %q: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var method string
	var expr sql.NullString
	var count int
	if err := rows.Scan(&method, &expr, &count); err != nil {
		return nil, fmt.Errorf("inspect: scan partition of %q: %w", table, err)
	}

	// PARTITION_METHOD may read "LINEAR HASH"; the base kind is last.
	fields := strings.Fields(strings.ToUpper(method))
	kind := ""
	if len(fields) > 0 {
		kind = fields[len(fields)-1]
	}

	p := &core.Partition{
		Kind:   core.PartitionKind(kind),
		Column: strings.Trim(strings.TrimSpace(expr.String), "`"),
		Count:  count,
	}
	return p, rows.Err()
}

// RowCountEstimate reads the fast approximate row count from
// INFORMATION_SCHEMA.TABLES.
func (r *Reader) RowCountEstimate(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.c.QueryRow(ctx, `
		SELECT IFNULL(TABLE_ROWS, 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, r.c.Database(), table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("inspect: row estimate of %q: %w", table, err)
	}
	return n, nil
}

// ExactRowCount runs SELECT COUNT(*); intended for small tables.
func (r *Reader) ExactRowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.c.QueryRow(ctx, "SELECT COUNT(*) FROM "+ddl.QuoteIdentifier(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("inspect: exact row count of %q: %w", table, err)
	}
	return n, nil
}

// ByteSize returns data plus index length in bytes.
func (r *Reader) ByteSize(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.c.QueryRow(ctx, `
		SELECT IFNULL(DATA_LENGTH, 0) + IFNULL(INDEX_LENGTH, 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, r.c.Database(), table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("inspect: byte size of %q: %w", table, err)
	}
	return n, nil
}

// ColumnIndexed reports whether the named column leads at least one
// index of the table (the shape a foreign key target must have).
func (r *Reader) ColumnIndexed(ctx context.Context, table, column string) (bool, error) {
	indexes, err := r.Indexes(ctx, table)
	if err != nil {
		return false, err
	}
	for _, idx := range indexes {
		if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], column) {
			return true, nil
		}
	}
	return false, nil
}

// ListTables returns the table names of a schema (the connected one when
// database is empty), sorted by the server.
func (r *Reader) ListTables(ctx context.Context, database string) ([]string, error) {
	if database == "" {
		database = r.c.Database()
	}
	rows, err := r.c.Query(ctx, `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, database)
	if err != nil {
		return nil, fmt.Errorf("inspect: list tables of %q: %w", database, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect: scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ListDatabases returns every schema name visible to the connection.
func (r *Reader) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := r.c.Query(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("inspect: list databases: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("inspect: scan database name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ReadTable assembles the full observed snapshot of one table.
func (r *Reader) ReadTable(ctx context.Context, table string) (*Table, error) {
	cols, err := r.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	indexes, err := r.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	fks, err := r.ForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	partition, err := r.Partition(ctx, table)
	if err != nil {
		return nil, err
	}
	rowEstimate, err := r.RowCountEstimate(ctx, table)
	if err != nil {
		return nil, err
	}
	byteSize, err := r.ByteSize(ctx, table)
	if err != nil {
		return nil, err
	}

	schema := assembleSchema(table, cols, indexes, fks, partition)
	if err := r.readTableOptions(ctx, table, schema); err != nil {
		return nil, err
	}

	return &Table{
		Schema:      schema,
		Indexes:     indexes,
		ForeignKeys: fks,
		RowEstimate: rowEstimate,
		ByteSize:    byteSize,
	}, nil
}

func (r *Reader) readTableOptions(ctx context.Context, table string, schema *core.Schema) error {
	var engine, collation, comment sql.NullString
	err := r.c.QueryRow(ctx, `
		SELECT ENGINE, TABLE_COLLATION, TABLE_COMMENT
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`, r.c.Database(), table).Scan(&engine, &collation, &comment)
	if err != nil {
		return fmt.Errorf("inspect: table options of %q: %w", table, err)
	}
	if engine.String != "" {
		schema.Engine = engine.String
	}
	if collation.String != "" {
		schema.Collation = collation.String
		if i := strings.Index(collation.String, "_"); i > 0 {
			schema.Charset = collation.String[:i]
		}
	}
	schema.TableComment = comment.String
	return nil
}

// assembleSchema folds the raw observations into the IR shape. Simple
// indexes that follow the tool's naming convention collapse onto column
// flags; other non-fulltext indexes land in the composite maps so a
// regenerated CREATE TABLE preserves index names. A fulltext index that
// does not follow the convention is not carried into the IR.
func assembleSchema(table string, cols []Column, indexes map[string]Index,
	fks map[string]ForeignKey, partition *core.Partition) *core.Schema {

	schema := core.NewSchema(table)
	schema.Partition = partition

	for i := range cols {
		def := cols[i].toColumnDef()
		def.Primary = strings.EqualFold(cols[i].Key, "PRI")
		schema.Columns = append(schema.Columns, def)
	}

	for _, fk := range fks {
		if col := schema.FindColumn(fk.Column); col != nil {
			col.Foreign = &core.ForeignKey{
				RefTable:  fk.RefTable,
				RefColumn: fk.RefColumn,
				OnDelete:  fk.OnDelete,
				OnUpdate:  fk.OnUpdate,
			}
		}
	}

	for _, name := range core.SortedKeys(indexes) {
		if name == "PRIMARY" {
			continue
		}
		idx := indexes[name]
		single := len(idx.Columns) == 1
		switch {
		case idx.Fulltext:
			if single && name == ddl.FulltextIndexName(idx.Columns[0]) {
				if col := schema.FindColumn(idx.Columns[0]); col != nil {
					col.Fulltext = true
				}
			}
		case idx.Unique && single && name == core.SimpleIndexName(idx.Columns[0], true):
			if col := schema.FindColumn(idx.Columns[0]); col != nil {
				col.Unique = true
			}
		case !idx.Unique && single && name == core.SimpleIndexName(idx.Columns[0], false):
			if col := schema.FindColumn(idx.Columns[0]); col != nil {
				col.Index = true
			}
		case idx.Unique:
			schema.CompositeUniqueIndexes[name] = idx.Columns
		default:
			schema.CompositeIndexes[name] = idx.Columns
		}
	}

	return schema
}

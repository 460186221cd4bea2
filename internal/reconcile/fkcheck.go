package reconcile

import (
	"context"
	"strings"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// ValidateForeignKeys checks every declared foreign key against the live
// database: the referenced table and column must exist, the column must
// lead an index, and the declared column type must match the referenced
// column type exactly, including length and UNSIGNED. The strict type
// rule is deliberate; MySQL accepts slightly more, but a mismatch that
// MySQL tolerates still costs an implicit conversion on every join.
func (r *Reconciler) ValidateForeignKeys(ctx context.Context, desired *core.Schema) error {
	for _, c := range desired.ForeignKeys() {
		fk := c.Foreign

		exists, err := r.reader.TableExists(ctx, fk.RefTable)
		if err != nil {
			return err
		}
		if !exists {
			return core.NewError(core.ErrSchemaMismatch,
				"foreign key on %s.%s: referenced table %q does not exist",
				desired.TableName, c.Name, fk.RefTable)
		}

		refCols, err := r.reader.Columns(ctx, fk.RefTable)
		if err != nil {
			return err
		}
		var refType string
		found := false
		for i := range refCols {
			if strings.EqualFold(refCols[i].Name, fk.RefColumn) {
				refType = refCols[i].Type
				found = true
				break
			}
		}
		if !found {
			return core.NewError(core.ErrSchemaMismatch,
				"foreign key on %s.%s: column %q does not exist in %q",
				desired.TableName, c.Name, fk.RefColumn, fk.RefTable)
		}

		indexed, err := r.reader.ColumnIndexed(ctx, fk.RefTable, fk.RefColumn)
		if err != nil {
			return err
		}
		if !indexed {
			return core.NewError(core.ErrSchemaMismatch,
				"foreign key on %s.%s: referenced column %s.%s is not indexed",
				desired.TableName, c.Name, fk.RefTable, fk.RefColumn)
		}

		declared := ddl.TypeClause(c)
		if !strings.EqualFold(declared, strings.TrimSpace(refType)) {
			return core.NewError(core.ErrSchemaMismatch,
				"foreign key on %s.%s: declared type %s does not match %s.%s type %s",
				desired.TableName, c.Name, declared, fk.RefTable, fk.RefColumn, refType)
		}
	}
	return nil
}

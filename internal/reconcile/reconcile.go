// Package reconcile turns (desired schema, observed table) pairs into
// ordered DDL plans. The statement order is the contract: explicit
// drops, implicit drops, renames, adds, modifications, foreign keys,
// composite indexes, unique composite indexes, simple indexes, fulltext
// indexes, and partition changes last because they rebuild the table.
package reconcile

import (
	"context"
	"strings"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
	"schemasync/internal/inspect"
)

// Reconciler builds plans against the connected database.
type Reconciler struct {
	reader *inspect.Reader
}

// New creates a reconciler over the given live reader.
func New(reader *inspect.Reader) *Reconciler {
	return &Reconciler{reader: reader}
}

// rejectUnsupportedPartition refuses the partition kinds the parser
// accepts but the generator cannot emit.
func rejectUnsupportedPartition(s *core.Schema) error {
	p := s.Partition
	if p == nil {
		return nil
	}
	if p.Kind == core.PartitionRange || p.Kind == core.PartitionList {
		return core.NewError(core.ErrInvalidModel,
			"table %q: %s partitioning requires hand-written boundaries and cannot be generated; use hash or key",
			s.TableName, strings.ToLower(string(p.Kind)))
	}
	return nil
}

// CreatePlan validates the schema, checks its foreign keys against the
// live database, and plans a fresh CREATE TABLE (preceded by a guarded
// drop when the table already exists).
func (r *Reconciler) CreatePlan(ctx context.Context, desired *core.Schema) (*core.Plan, error) {
	if err := validateSchema(desired); err != nil {
		return nil, err
	}
	if err := r.ValidateForeignKeys(ctx, desired); err != nil {
		return nil, err
	}

	plan := &core.Plan{Table: desired.TableName}

	exists, err := r.reader.TableExists(ctx, desired.TableName)
	if err != nil {
		return nil, err
	}
	if exists {
		plan.Add(core.StmtDropTable, desired.TableName, ddl.DropTableIfExists(desired.TableName))
	}
	plan.Add(core.StmtCreateTable, desired.TableName, ddl.CreateTable(desired))
	return plan, nil
}

// UpdatePlan reads the observed table and plans the minimal DDL that
// reconciles it with the desired schema.
func (r *Reconciler) UpdatePlan(ctx context.Context, desired *core.Schema) (*core.Plan, error) {
	if err := validateSchema(desired); err != nil {
		return nil, err
	}

	exists, err := r.reader.TableExists(ctx, desired.TableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NewError(core.ErrSchemaMismatch,
			"table %q does not exist; create it first", desired.TableName)
	}

	observed, err := r.reader.ReadTable(ctx, desired.TableName)
	if err != nil {
		return nil, err
	}
	return BuildPlan(desired, observed)
}

func validateSchema(desired *core.Schema) error {
	if err := rejectUnsupportedPartition(desired); err != nil {
		return err
	}
	if err := desired.Validate(); err != nil {
		if ve, ok := err.(*core.ValidationError); ok {
			return ve.AsInvalidModel()
		}
		return err
	}
	return nil
}

// BuildPlan is the pure planning step over a desired schema and an
// observed snapshot.
func BuildPlan(desired *core.Schema, observed *inspect.Table) (*core.Plan, error) {
	if err := rejectUnsupportedPartition(desired); err != nil {
		return nil, err
	}

	plan := &core.Plan{
		Table:       desired.TableName,
		RowEstimate: observed.RowEstimate,
		ByteSize:    observed.ByteSize,
	}

	b := &builder{desired: desired, observed: observed, plan: plan}
	b.dropExplicit()
	b.dropOrphaned()
	b.renameColumns()
	b.addColumns()
	b.modifyColumns()
	b.reconcileForeignKeys()
	b.reconcileIndexes()
	b.reconcilePartition()

	return plan, nil
}

// builder carries the shared state of one planning run.
type builder struct {
	desired  *core.Schema
	observed *inspect.Table
	plan     *core.Plan

	// renamedFrom maps old (observed) names consumed by a rename.
	renamedFrom map[string]bool
	// added tracks columns introduced by this plan, so the fulltext pass
	// does not re-add indexes already appended with the column.
	added map[string]bool
}

func (b *builder) observedColumn(name string) *core.ColumnDef {
	return b.observed.Schema.FindColumn(name)
}

// dropExplicit plans drops for columns carrying the drop marker, when
// they still exist.
func (b *builder) dropExplicit() {
	for _, c := range b.desired.Columns {
		if !c.Drop {
			continue
		}
		if b.observedColumn(c.Name) == nil {
			continue
		}
		b.plan.Add(core.StmtDropColumn, c.Name, ddl.DropColumn(b.desired.TableName, c.Name))
		b.plan.DroppedColumns = append(b.plan.DroppedColumns,
			core.DroppedColumn{Name: c.Name, Reason: core.DropReasonExplicit})
	}
}

// dropOrphaned plans drops for observed columns the schema no longer
// mentions and no rename consumes.
func (b *builder) dropOrphaned() {
	b.renamedFrom = map[string]bool{}
	for _, c := range b.desired.Columns {
		if c.Rename != "" && !c.Drop {
			b.renamedFrom[strings.ToLower(c.Rename)] = true
		}
	}

	for _, oc := range b.observed.Schema.Columns {
		if b.desired.FindColumn(oc.Name) != nil {
			continue
		}
		if b.renamedFrom[strings.ToLower(oc.Name)] {
			continue
		}
		b.plan.Add(core.StmtDropColumn, oc.Name, ddl.DropColumn(b.desired.TableName, oc.Name))
		b.plan.DroppedColumns = append(b.plan.DroppedColumns,
			core.DroppedColumn{Name: oc.Name, Reason: core.DropReasonOrphaned})
	}
}

// renameColumns plans CHANGE statements carrying the full new
// definition, so a rename and a type change travel together.
func (b *builder) renameColumns() {
	for _, c := range b.desired.Columns {
		if c.Drop || c.Rename == "" {
			continue
		}
		if b.observedColumn(c.Rename) == nil {
			// Old name already gone; the column is handled by the add or
			// modify pass under its new name.
			continue
		}
		b.plan.Add(core.StmtRenameColumn, c.Name, ddl.ChangeColumn(b.desired.TableName, c.Rename, c))
		b.plan.RenamedColumns = append(b.plan.RenamedColumns,
			core.RenamedColumn{Old: c.Rename, New: c.Name})
	}
}

// addColumns plans ADD COLUMN for desired columns the table lacks,
// appending a fulltext index immediately when the column declares one.
func (b *builder) addColumns() {
	b.added = map[string]bool{}
	for _, c := range b.desired.Columns {
		if c.Drop || c.Rename != "" {
			continue
		}
		if b.observedColumn(c.Name) != nil {
			continue
		}
		b.plan.Add(core.StmtAddColumn, c.Name, ddl.AddColumn(b.desired.TableName, c))
		b.added[strings.ToLower(c.Name)] = true

		if c.Fulltext {
			name := ddl.FulltextIndexName(c.Name)
			b.plan.Add(core.StmtAddIndex, name,
				ddl.AddFulltextIndex(b.desired.TableName, name, []string{c.Name}))
		}
	}
}

// modifyColumns plans MODIFY COLUMN only when the canonical definition
// changed.
func (b *builder) modifyColumns() {
	for _, c := range b.desired.Columns {
		if c.Drop {
			continue
		}
		if c.Rename != "" && b.observedColumn(c.Rename) != nil {
			// The CHANGE statement already carries the new definition.
			continue
		}
		oc := b.observedColumn(c.Name)
		if oc == nil {
			continue
		}
		if core.ColumnChanged(c, oc) {
			b.plan.Add(core.StmtModifyColumn, c.Name, ddl.ModifyColumn(b.desired.TableName, c))
		}
	}
}

// reconcileForeignKeys drops removed or changed constraints, then adds
// missing or changed ones. Drops always precede adds.
func (b *builder) reconcileForeignKeys() {
	table := b.desired.TableName

	desired := map[string]inspect.ForeignKey{}
	defs := map[string]*core.ColumnDef{}
	for _, c := range b.desired.ForeignKeys() {
		name := ddl.ForeignKeyName(table, c.Name)
		desired[name] = inspect.ForeignKey{
			Column:    c.Name,
			RefTable:  c.Foreign.RefTable,
			RefColumn: c.Foreign.RefColumn,
			OnDelete:  c.Foreign.OnDelete,
			OnUpdate:  c.Foreign.OnUpdate,
		}
		defs[name] = c
	}

	for _, name := range core.SortedKeys(b.observed.ForeignKeys) {
		want, ok := desired[name]
		if ok && foreignKeysEqual(want, b.observed.ForeignKeys[name]) {
			continue
		}
		b.plan.Add(core.StmtDropForeignKey, name, ddl.DropForeignKey(table, name))
	}

	for _, name := range core.SortedKeys(desired) {
		got, ok := b.observed.ForeignKeys[name]
		if ok && foreignKeysEqual(desired[name], got) {
			continue
		}
		b.plan.Add(core.StmtAddForeignKey, name, ddl.AddForeignKey(table, defs[name]))
	}
}

func foreignKeysEqual(a, b inspect.ForeignKey) bool {
	return strings.EqualFold(a.Column, b.Column) &&
		strings.EqualFold(a.RefTable, b.RefTable) &&
		strings.EqualFold(a.RefColumn, b.RefColumn) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}

// reconcilePartition is last because partition changes rebuild the table.
func (b *builder) reconcilePartition() {
	table := b.desired.TableName
	want := b.desired.Partition
	got := b.observed.Schema.Partition

	switch {
	case want == nil && got == nil:
	case want == nil:
		b.plan.Add(core.StmtPartition, table, ddl.RemovePartitioning(table))
	case got == nil, !want.Equal(got):
		b.plan.Add(core.StmtPartition, table, ddl.PartitionBy(table, want))
	}
}

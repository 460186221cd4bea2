package reconcile

import (
	"strings"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// indexCategory orders index reconciliation: composite non-unique, then
// composite unique, then simple per-column, then fulltext.
type indexCategory int

const (
	catComposite indexCategory = iota
	catCompositeUnique
	catSimple
	catFulltext
)

// categorized pairs an index definition with its reconciliation pass.
type categorized struct {
	core.IndexDef
	category indexCategory
}

// reconcileIndexes runs the four category passes, each drop-then-add.
// An index rebuilds when its column list or uniqueness changed; equality
// is checked across categories by name so a category move still drops
// the old shape.
func (b *builder) reconcileIndexes() {
	desired := b.desiredIndexes()
	observed := b.observedIndexes()

	for _, cat := range []indexCategory{catComposite, catCompositeUnique, catSimple, catFulltext} {
		b.dropIndexPass(cat, desired, observed)
		b.addIndexPass(cat, desired, observed)
	}
}

func (b *builder) dropIndexPass(cat indexCategory, desired, observed map[string]categorized) {
	for _, name := range core.SortedKeys(observed) {
		idx := observed[name]
		if idx.category != cat {
			continue
		}
		if want, ok := desired[name]; ok && want.Equal(idx.IndexDef) {
			continue
		}
		b.plan.Add(core.StmtDropIndex, name, ddl.DropIndex(b.desired.TableName, name))
	}
}

func (b *builder) addIndexPass(cat indexCategory, desired, observed map[string]categorized) {
	for _, name := range core.SortedKeys(desired) {
		idx := desired[name]
		if idx.category != cat {
			continue
		}
		if got, ok := observed[name]; ok && idx.Equal(got.IndexDef) {
			continue
		}
		if idx.Fulltext && len(idx.Columns) == 1 && b.added[strings.ToLower(idx.Columns[0])] {
			// Already appended together with the new column.
			continue
		}
		if idx.Fulltext {
			b.plan.Add(core.StmtAddIndex, name, ddl.AddFulltextIndex(b.desired.TableName, name, idx.Columns))
			continue
		}
		b.plan.Add(core.StmtAddIndex, name, ddl.AddIndex(b.desired.TableName, name, idx.Columns, idx.Unique))
	}
}

// desiredIndexes flattens the schema's index declarations and assigns
// each to its category pass.
func (b *builder) desiredIndexes() map[string]categorized {
	out := map[string]categorized{}
	for name, def := range b.desired.IndexDefs() {
		out[name] = categorized{IndexDef: def, category: categorize(def, b.desired)}
	}
	return out
}

// observedIndexes classifies the live indexes by shape: the naming
// convention decides whether a single-column index counts as simple.
func (b *builder) observedIndexes() map[string]categorized {
	out := map[string]categorized{}

	for name, idx := range b.observed.Indexes {
		if name == "PRIMARY" {
			continue
		}
		// MySQL keeps a backing index named after each FK constraint;
		// it lives and dies with the constraint, not with this pass.
		if _, ok := b.observed.ForeignKeys[name]; ok {
			continue
		}
		def := core.IndexDef{Name: name, Columns: idx.Columns, Unique: idx.Unique, Fulltext: idx.Fulltext}
		out[name] = categorized{IndexDef: def, category: categorizeObserved(def)}
	}
	return out
}

// categorize places a declared index: the composite maps own their
// entries by name, everything else derives from column attributes.
func categorize(def core.IndexDef, s *core.Schema) indexCategory {
	switch {
	case def.Fulltext:
		return catFulltext
	case containsKey(s.CompositeUniqueIndexes, def.Name):
		return catCompositeUnique
	case containsKey(s.CompositeIndexes, def.Name):
		return catComposite
	default:
		return catSimple
	}
}

func categorizeObserved(def core.IndexDef) indexCategory {
	single := len(def.Columns) == 1
	switch {
	case def.Fulltext:
		return catFulltext
	case single && def.Name == core.SimpleIndexName(def.Columns[0], def.Unique):
		return catSimple
	case def.Unique:
		return catCompositeUnique
	default:
		return catComposite
	}
}

func containsKey(m map[string][]string, key string) bool {
	_, ok := m[key]
	return ok
}

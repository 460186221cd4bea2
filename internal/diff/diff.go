// Package diff compares two schema sets — typically a stored definition
// and the live database read back as IR — and emits paired up and down
// scripts for hand-authored migrations. Every up action has a mirrored
// down action, and the down script runs in reverse order of the up
// script.
package diff

import (
	"strings"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// Script is the differ's output: ordered statements transforming the
// old set into the new one, and the statements undoing that in reverse.
type Script struct {
	Up   []string
	Down []string
}

// IsEmpty reports whether the two schema sets were equivalent.
func (s *Script) IsEmpty() bool {
	return len(s.Up) == 0 && len(s.Down) == 0
}

// change is one mirrored action pair.
type change struct {
	up   []string
	down []string
}

// Diff compares the old and new schema sets. Tables of the new set come
// first, in case-insensitive name order: a create for an added table, the
// table-level modifications for one both sets share. Removed tables are
// dropped after them.
func Diff(oldSet, newSet core.SchemaSet) *Script {
	var changes []change

	oldNames := lowerIndex(oldSet)
	newNames := lowerIndex(newSet)

	for _, name := range newSet.TableNames() {
		nt := newSet[name]
		ot, ok := oldNames[strings.ToLower(name)]
		if !ok {
			changes = append(changes, change{
				up:   []string{ddl.CreateTable(nt)},
				down: []string{ddl.DropTable(nt.TableName)},
			})
			continue
		}
		changes = append(changes, diffTable(ot, nt)...)
	}

	for _, name := range oldSet.TableNames() {
		if _, ok := newNames[strings.ToLower(name)]; ok {
			continue
		}
		ot := oldSet[name]
		changes = append(changes, change{
			up:   []string{ddl.DropTable(ot.TableName)},
			down: []string{ddl.CreateTable(ot)},
		})
	}

	return assemble(changes)
}

func lowerIndex(set core.SchemaSet) map[string]*core.Schema {
	m := make(map[string]*core.Schema, len(set))
	for name, s := range set {
		m[strings.ToLower(name)] = s
	}
	return m
}

// assemble concatenates the ups in order and the downs in reverse.
func assemble(changes []change) *Script {
	s := &Script{}
	for _, c := range changes {
		s.Up = append(s.Up, c.up...)
	}
	for i := len(changes) - 1; i >= 0; i-- {
		s.Down = append(s.Down, changes[i].down...)
	}
	return s
}

// diffTable diffs columns, foreign keys, indexes, and check constraints
// independently.
func diffTable(old, new *core.Schema) []change {
	var changes []change
	changes = append(changes, diffColumns(old, new)...)
	changes = append(changes, diffForeignKeys(old, new)...)
	changes = append(changes, diffIndexes(old, new)...)
	changes = append(changes, diffChecks(old, new)...)
	return changes
}

func diffColumns(old, new *core.Schema) []change {
	var changes []change
	table := new.TableName

	for _, c := range new.Columns {
		if c.Drop {
			continue
		}
		oc := old.FindColumn(c.Name)
		switch {
		case oc == nil:
			changes = append(changes, change{
				up:   []string{ddl.AddColumn(table, c)},
				down: []string{ddl.DropColumn(table, c.Name)},
			})
		case core.ColumnChanged(c, oc):
			// Rebuild pairs: the old definition restores exactly.
			changes = append(changes, change{
				up:   []string{ddl.DropColumn(table, oc.Name), ddl.AddColumn(table, c)},
				down: []string{ddl.DropColumn(table, c.Name), ddl.AddColumn(table, oc)},
			})
		}
	}

	for _, oc := range old.Columns {
		if oc.Drop {
			continue
		}
		if new.FindColumn(oc.Name) != nil {
			continue
		}
		changes = append(changes, change{
			up:   []string{ddl.DropColumn(table, oc.Name)},
			down: []string{ddl.AddColumn(table, oc)},
		})
	}

	return changes
}

func diffForeignKeys(old, new *core.Schema) []change {
	var changes []change
	table := new.TableName

	oldFKs := foreignKeysByName(old)
	newFKs := foreignKeysByName(new)

	for _, name := range core.SortedKeys(newFKs) {
		nc := newFKs[name]
		oc, ok := oldFKs[name]
		switch {
		case !ok:
			changes = append(changes, change{
				up:   []string{ddl.AddForeignKey(table, nc)},
				down: []string{ddl.DropForeignKey(table, name)},
			})
		case !foreignDefsEqual(oc.Foreign, nc.Foreign):
			changes = append(changes, change{
				up:   []string{ddl.DropForeignKey(table, name), ddl.AddForeignKey(table, nc)},
				down: []string{ddl.DropForeignKey(table, name), ddl.AddForeignKey(table, oc)},
			})
		}
	}

	for _, name := range core.SortedKeys(oldFKs) {
		if _, ok := newFKs[name]; ok {
			continue
		}
		changes = append(changes, change{
			up:   []string{ddl.DropForeignKey(table, name)},
			down: []string{ddl.AddForeignKey(table, oldFKs[name])},
		})
	}

	return changes
}

func foreignKeysByName(s *core.Schema) map[string]*core.ColumnDef {
	out := map[string]*core.ColumnDef{}
	for _, c := range s.ForeignKeys() {
		out[ddl.ForeignKeyName(s.TableName, c.Name)] = c
	}
	return out
}

func foreignDefsEqual(a, b *core.ForeignKey) bool {
	return strings.EqualFold(a.RefTable, b.RefTable) &&
		strings.EqualFold(a.RefColumn, b.RefColumn) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}

func diffIndexes(old, new *core.Schema) []change {
	var changes []change
	table := new.TableName

	oldIdx := old.IndexDefs()
	newIdx := new.IndexDefs()

	for _, name := range core.SortedKeys(newIdx) {
		nd := newIdx[name]
		od, ok := oldIdx[name]
		switch {
		case !ok:
			changes = append(changes, change{
				up:   []string{addIndexStmt(table, nd)},
				down: []string{ddl.DropIndex(table, name)},
			})
		case !nd.Equal(od):
			changes = append(changes, change{
				up:   []string{ddl.DropIndex(table, name), addIndexStmt(table, nd)},
				down: []string{ddl.DropIndex(table, name), addIndexStmt(table, od)},
			})
		}
	}

	for _, name := range core.SortedKeys(oldIdx) {
		if _, ok := newIdx[name]; ok {
			continue
		}
		changes = append(changes, change{
			up:   []string{ddl.DropIndex(table, name)},
			down: []string{addIndexStmt(table, oldIdx[name])},
		})
	}

	return changes
}

func addIndexStmt(table string, d core.IndexDef) string {
	if d.Fulltext {
		return ddl.AddFulltextIndex(table, d.Name, d.Columns)
	}
	return ddl.AddIndex(table, d.Name, d.Columns, d.Unique)
}

func diffChecks(old, new *core.Schema) []change {
	var changes []change
	table := new.TableName

	for _, c := range new.Columns {
		if c.Drop {
			continue
		}
		oc := old.FindColumn(c.Name)
		oldExpr := ""
		if oc != nil {
			oldExpr = oc.Check
		}
		if c.Check == oldExpr {
			continue
		}

		name := ddl.CheckConstraintName(table, c.Name)
		switch {
		case oldExpr == "":
			changes = append(changes, change{
				up:   []string{ddl.AddCheck(table, name, c.Check)},
				down: []string{ddl.DropCheck(table, name)},
			})
		case c.Check == "":
			changes = append(changes, change{
				up:   []string{ddl.DropCheck(table, name)},
				down: []string{ddl.AddCheck(table, name, oldExpr)},
			})
		default:
			changes = append(changes, change{
				up:   []string{ddl.DropCheck(table, name), ddl.AddCheck(table, name, c.Check)},
				down: []string{ddl.DropCheck(table, name), ddl.AddCheck(table, name, oldExpr)},
			})
		}
	}

	// Checks on columns the new schema dropped disappear with the column
	// itself; no separate statement is needed.

	return changes
}

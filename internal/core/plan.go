package core

import "strings"

// StatementKind classifies a planned statement; the executor maps kinds
// to cost-warning categories.
type StatementKind string

const (
	StmtCreateTable    StatementKind = "create_table"
	StmtDropTable      StatementKind = "drop_table"
	StmtDropColumn     StatementKind = "drop_column"
	StmtRenameColumn   StatementKind = "rename_column"
	StmtAddColumn      StatementKind = "add_column"
	StmtModifyColumn   StatementKind = "modify_column"
	StmtAddForeignKey  StatementKind = "add_foreign_key"
	StmtDropForeignKey StatementKind = "drop_foreign_key"
	StmtAddIndex       StatementKind = "add_index"
	StmtDropIndex      StatementKind = "drop_index"
	StmtPartition      StatementKind = "partition"
)

// Statement is one planned DDL operation.
type Statement struct {
	SQL  string
	Kind StatementKind
	// Target names the object the statement manipulates (a column,
	// index, or constraint name; the table name for table-level ops).
	Target string
}

// Drop reasons surfaced with each dropped column.
const (
	DropReasonExplicit = "@drop"
	DropReasonOrphaned = "orphaned"
)

// DroppedColumn records a column the plan removes, with the reason it
// was selected.
type DroppedColumn struct {
	Name   string
	Reason string
}

// RenamedColumn records an old→new column rename contained in the plan.
type RenamedColumn struct {
	Old string
	New string
}

// Plan is the ordered list of statements that transforms the observed
// table into the desired one, plus the destructive changes that require
// confirmation before execution.
type Plan struct {
	Table          string
	Statements     []Statement
	DroppedColumns []DroppedColumn
	RenamedColumns []RenamedColumn

	// RowEstimate is the observed table's approximate row count; the
	// executor uses it for cost warnings.
	RowEstimate int64
	// ByteSize is the observed data + index size in bytes.
	ByteSize int64
}

// IsEmpty reports whether the plan contains no statements.
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.Statements) == 0
}

// Add appends a statement, ignoring empty SQL.
func (p *Plan) Add(kind StatementKind, target, sql string) {
	if strings.TrimSpace(sql) == "" {
		return
	}
	p.Statements = append(p.Statements, Statement{SQL: sql, Kind: kind, Target: target})
}

// NeedsConfirmation reports whether the plan removes or renames columns
// and therefore must be confirmed before execution.
func (p *Plan) NeedsConfirmation() bool {
	return len(p.DroppedColumns) > 0 || len(p.RenamedColumns) > 0
}

// SQLStatements returns just the SQL text of every planned statement.
func (p *Plan) SQLStatements() []string {
	out := make([]string, 0, len(p.Statements))
	for _, st := range p.Statements {
		out = append(out, st.SQL)
	}
	return out
}

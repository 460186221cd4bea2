// Package apply executes DDL plans against a live connection. It shows
// the preview, prints cost warnings, asks for confirmation when the plan
// removes or renames columns, and then runs the statements one by one
// with per-statement timing. MySQL auto-commits DDL, so on failure the
// already-executed statements stay applied; the executor stops and
// reports instead of pretending to roll back.
package apply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/output"
	"schemasync/internal/reconcile"
)

// previewWidth bounds each previewed statement.
const previewWidth = 100

// Executor runs plans.
type Executor struct {
	conn    conn.Connection
	printer *output.Printer
}

// NewExecutor creates an executor over a connection and printer.
func NewExecutor(c conn.Connection, p *output.Printer) *Executor {
	return &Executor{conn: c, printer: p}
}

// Execute previews, confirms, and runs the plan. A declined
// confirmation returns the user-aborted error with nothing executed.
func (e *Executor) Execute(ctx context.Context, plan *core.Plan) error {
	if plan.IsEmpty() {
		e.printer.Success(fmt.Sprintf("table %s: no changes", plan.Table))
		return nil
	}

	e.preview(plan)
	e.printWarnings(plan)

	if plan.NeedsConfirmation() {
		if !e.confirmDestructive(plan) {
			e.printer.Line("Aborted; nothing was executed.")
			return core.UserAborted()
		}
	}

	return e.run(ctx, plan)
}

func (e *Executor) preview(plan *core.Plan) {
	e.printer.Info(fmt.Sprintf("Planned changes for %s:", plan.Table))
	for i, st := range plan.Statements {
		e.printer.Linef("  %d. %s", i+1, truncate(st.SQL, previewWidth))
	}
}

func (e *Executor) printWarnings(plan *core.Plan) {
	for _, w := range reconcile.CostWarnings(plan) {
		e.printer.Warn("warning: " + w.Message)
	}
}

func (e *Executor) confirmDestructive(plan *core.Plan) bool {
	if len(plan.DroppedColumns) > 0 {
		e.printer.Warn("Columns to be dropped (data is lost):")
		for _, d := range plan.DroppedColumns {
			e.printer.Linef("  - %s (%s)", d.Name, d.Reason)
		}
	}
	if len(plan.RenamedColumns) > 0 {
		e.printer.Warn("Columns to be renamed:")
		for _, r := range plan.RenamedColumns {
			e.printer.Linef("  - %s -> %s", r.Old, r.New)
		}
	}
	return e.printer.Confirm("Apply these changes?")
}

func (e *Executor) run(ctx context.Context, plan *core.Plan) error {
	total := len(plan.Statements)
	for i, st := range plan.Statements {
		// Cancellation is honoured between statements only; once a DDL
		// statement is in flight it runs to completion, because MySQL
		// does not interrupt structural changes reliably.
		if err := ctx.Err(); err != nil {
			e.printer.Warn(fmt.Sprintf("interrupted; %d of %d statements were applied and stay applied", i, total))
			return core.WrapError(core.ErrStatementFailed, err,
				"interrupted before statement %d of %d", i+1, total)
		}

		start := time.Now()
		if _, err := e.conn.Exec(ctx, st.SQL); err != nil {
			e.printer.Error(fmt.Sprintf("  [%d/%d] FAILED: %s", i+1, total, truncate(st.SQL, 60)))
			return core.WrapError(core.ErrStatementFailed, err,
				"statement %d of %d failed; %d statements were already applied and stay applied",
				i+1, total, i)
		}
		e.printer.Linef("  [%d/%d] OK: %s (%s)", i+1, total, truncate(st.SQL, 60), formatDuration(time.Since(start)))
	}

	e.printer.Success(fmt.Sprintf("table %s: %d statements applied", plan.Table, total))
	return nil
}

// formatDuration renders milliseconds under one second and
// seconds/minutes above it.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

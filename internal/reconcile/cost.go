package reconcile

import (
	"fmt"

	"schemasync/internal/core"
)

// slowTableRows is the row estimate above which structural changes get a
// cost warning.
const slowTableRows = 100_000

// indexRowsPerSecond drives the advisory duration estimate for index
// rebuilds.
const indexRowsPerSecond = 50_000

// WarningCategory groups plan statements by their cost profile. The
// executor prints at most one warning per category.
type WarningCategory string

const (
	WarnIndex     WarningCategory = "index"
	WarnModify    WarningCategory = "modify"
	WarnPartition WarningCategory = "partition"
)

// Warning is one advisory cost note about a plan. Warnings never change
// the plan.
type Warning struct {
	Category WarningCategory
	Message  string
}

// CostWarnings scans the plan once and collects at most one warning per
// category, based on the observed row estimate and byte size.
func CostWarnings(p *core.Plan) []Warning {
	if p == nil || p.RowEstimate <= slowTableRows {
		return nil
	}

	seen := map[WarningCategory]bool{}
	var out []Warning

	add := func(cat WarningCategory, msg string) {
		if seen[cat] {
			return
		}
		seen[cat] = true
		out = append(out, Warning{Category: cat, Message: msg})
	}

	for _, st := range p.Statements {
		switch st.Kind {
		case core.StmtAddIndex, core.StmtDropIndex:
			secs := (p.RowEstimate + indexRowsPerSecond - 1) / indexRowsPerSecond
			add(WarnIndex, fmt.Sprintf(
				"index change on ~%d rows; estimated %d seconds — do not interrupt while it runs",
				p.RowEstimate, secs))
		case core.StmtModifyColumn, core.StmtRenameColumn:
			add(WarnModify, fmt.Sprintf(
				"column change on ~%d rows may rebuild the table and take a while", p.RowEstimate))
		case core.StmtPartition:
			add(WarnPartition, fmt.Sprintf(
				"partition change rebuilds the table (~%s); ensure equivalent free temp space",
				humanBytes(p.ByteSize)))
		}
	}
	return out
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/core"
)

func planWith(rows int64, kinds ...core.StatementKind) *core.Plan {
	p := &core.Plan{Table: "t", RowEstimate: rows, ByteSize: 5 << 30}
	for _, k := range kinds {
		p.Statements = append(p.Statements, core.Statement{SQL: "ALTER TABLE `t` ...;", Kind: k})
	}
	return p
}

func TestCostWarningsBelowThreshold(t *testing.T) {
	p := planWith(100_000, core.StmtAddIndex, core.StmtModifyColumn, core.StmtPartition)
	assert.Empty(t, CostWarnings(p))
}

func TestCostWarningsOnePerCategory(t *testing.T) {
	p := planWith(500_000,
		core.StmtAddIndex, core.StmtDropIndex, // one index warning
		core.StmtModifyColumn, core.StmtModifyColumn, // one modify warning
		core.StmtPartition, // one partition warning
		core.StmtAddColumn, // never warns
	)

	warnings := CostWarnings(p)
	require.Len(t, warnings, 3)
	assert.Equal(t, WarnIndex, warnings[0].Category)
	assert.Equal(t, WarnModify, warnings[1].Category)
	assert.Equal(t, WarnPartition, warnings[2].Category)
}

func TestCostWarningsIndexEstimate(t *testing.T) {
	p := planWith(500_000, core.StmtAddIndex)
	warnings := CostWarnings(p)
	require.Len(t, warnings, 1)
	// ceil(500000 / 50000) = 10 seconds
	assert.Contains(t, warnings[0].Message, "10 seconds")
	assert.Contains(t, warnings[0].Message, "do not interrupt")
}

func TestCostWarningsPartitionReportsBytes(t *testing.T) {
	p := planWith(200_000, core.StmtPartition)
	warnings := CostWarnings(p)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "5.0 GB")
}

func TestCostWarningsNilPlan(t *testing.T) {
	assert.Empty(t, CostWarnings(nil))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KB", humanBytes(1024))
	assert.Equal(t, "1.5 MB", humanBytes(3<<20/2))
	assert.Equal(t, "2.0 GB", humanBytes(2<<30))
}

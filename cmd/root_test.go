package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHasAllCommands(t *testing.T) {
	want := []string{
		"model:create-table", "model:update-table", "model:drop-table",
		"model:empty-table", "model:rename-table", "model:table-schema",
		"model:export-table",
		"db:schema", "db:export", "db:import", "db:list", "db:tables",
		"db:create", "db:drop", "db:empty", "db:seed", "db:diff",
		"diff", "version",
	}

	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "missing command %q", name)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"model:explode"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.Error(t, rootCmd.Execute())
}

func TestHelpListsUsage(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--help"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "schemasync")
	assert.Contains(t, out.String(), "model:update-table")
}

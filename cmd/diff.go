package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/diff"
	"schemasync/internal/inspect"
	"schemasync/internal/output"
	"schemasync/internal/sqlschema"
)

func init() {
	rootCmd.AddCommand(dbDiffCmd())
	rootCmd.AddCommand(diffCmd())
}

type diffFlags struct {
	outFile      string
	rollbackFile string
	format       string
}

// dbDiffCmd scaffolds a hand-authored migration: it diffs a stored
// schema definition against the live database as observed right now.
func dbDiffCmd() *cobra.Command {
	flags := &diffFlags{}
	cmd := &cobra.Command{
		Use:   "db:diff <schema.sql>",
		Short: "Diff a stored schema file against the live database",
		Long: `db:diff parses a stored schema definition (CREATE TABLE dump) and
compares it with the live database. The up script transforms the live
schema into the stored one; the down script undoes it in reverse.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				stored, err := sqlschema.NewParser().ParseFile(args[0])
				if err != nil {
					return err
				}

				live, err := readLiveSet(ctx, c)
				if err != nil {
					return err
				}

				return writeScript(diff.Diff(live, stored), flags)
			})
		},
	}
	addDiffFlags(cmd, flags)
	return cmd
}

// diffCmd compares two stored schema files without touching a database.
func diffCmd() *cobra.Command {
	flags := &diffFlags{}
	cmd := &cobra.Command{
		Use:   "diff <old.sql> <new.sql>",
		Short: "Diff two stored schema files",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			parser := sqlschema.NewParser()
			oldSet, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}
			newSet, err := parser.ParseFile(args[1])
			if err != nil {
				return err
			}
			return writeScript(diff.Diff(oldSet, newSet), flags)
		},
	}
	addDiffFlags(cmd, flags)
	return cmd
}

func addDiffFlags(cmd *cobra.Command, flags *diffFlags) {
	cmd.Flags().StringVarP(&flags.outFile, "output", "o", "", "File for the up script (stdout when empty)")
	cmd.Flags().StringVarP(&flags.rollbackFile, "rollback-output", "b", "", "File for the down script")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: sql or json")
}

// readLiveSet reads every live table back as IR.
func readLiveSet(ctx context.Context, c *conn.DB) (core.SchemaSet, error) {
	reader := inspect.NewReader(c)
	tables, err := reader.ListTables(ctx, "")
	if err != nil {
		return nil, err
	}

	set := core.SchemaSet{}
	for _, table := range tables {
		observed, err := reader.ReadTable(ctx, table)
		if err != nil {
			return nil, err
		}
		set[table] = observed.Schema
	}
	return set, nil
}

func writeScript(script *diff.Script, flags *diffFlags) error {
	printer := output.Default()

	if script.IsEmpty() {
		printer.Success("schemas are identical")
		return nil
	}

	formatter, err := output.NewFormatter(flags.format)
	if err != nil {
		return err
	}
	formatted, err := formatter.FormatScript(script)
	if err != nil {
		return err
	}

	if flags.outFile == "" {
		printer.Line(formatted)
	} else if err := os.WriteFile(flags.outFile, []byte(formatted), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", flags.outFile, err)
	}

	if flags.rollbackFile != "" {
		down := renderDownScript(script)
		if err := os.WriteFile(flags.rollbackFile, []byte(down), 0o644); err != nil {
			return fmt.Errorf("write %q: %w", flags.rollbackFile, err)
		}
	}
	return nil
}

// renderDownScript writes the down statements as a runnable script of
// their own, since the combined form keeps them commented out.
func renderDownScript(script *diff.Script) string {
	formatter, _ := output.NewFormatter("sql")
	formatted, err := formatter.FormatScript(&diff.Script{Up: script.Down})
	if err != nil {
		return ""
	}
	return formatted
}

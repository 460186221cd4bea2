package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"schemasync/internal/apply"
	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/ddl"
	"schemasync/internal/dump"
	"schemasync/internal/inspect"
	"schemasync/internal/output"
	"schemasync/internal/reconcile"
)

func modelCommands() []*cobra.Command {
	return []*cobra.Command{
		modelCreateTableCmd(),
		modelUpdateTableCmd(),
		modelDropTableCmd(),
		modelEmptyTableCmd(),
		modelRenameTableCmd(),
		modelTableSchemaCmd(),
		modelExportTableCmd(),
	}
}

// withModelConnection parses the model, opens the connection, and hands
// both to the command body.
func withModelConnection(cmd *cobra.Command, modelName string,
	fn func(ctx context.Context, c *conn.DB, schema *core.Schema) error) error {

	schema, err := loadModel(modelName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := openConnection(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c, schema)
}

func modelCreateTableCmd() *cobra.Command {
	var dryRun bool
	var format string
	cmd := &cobra.Command{
		Use:   "model:create-table <Model>",
		Short: "Create the model's table, dropping any existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				printer := output.Default()
				reconciler := reconcile.New(inspect.NewReader(c))

				plan, err := reconciler.CreatePlan(ctx, schema)
				if err != nil {
					return err
				}
				if dryRun {
					return printPlan(printer, plan, format)
				}
				return apply.NewExecutor(c, printer).Execute(ctx, plan)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without executing")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Dry-run output format: sql or json")
	return cmd
}

func modelUpdateTableCmd() *cobra.Command {
	var dryRun bool
	var format string
	cmd := &cobra.Command{
		Use:   "model:update-table <Model>",
		Short: "Reconcile the live table with the model definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				printer := output.Default()
				reconciler := reconcile.New(inspect.NewReader(c))

				plan, err := reconciler.UpdatePlan(ctx, schema)
				if err != nil {
					return err
				}
				if dryRun {
					return printPlan(printer, plan, format)
				}
				return apply.NewExecutor(c, printer).Execute(ctx, plan)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without executing")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Dry-run output format: sql or json")
	return cmd
}

func printPlan(printer *output.Printer, plan *core.Plan, format string) error {
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	formatted, err := formatter.FormatPlan(plan)
	if err != nil {
		return err
	}
	printer.Line(formatted)
	return nil
}

func modelDropTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model:drop-table <Model>",
		Short: "Drop the model's table (asks twice)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				printer := output.Default()
				table := schema.TableName

				if !printer.Confirm(fmt.Sprintf("Drop table %q with all its data?", table)) {
					return core.UserAborted()
				}
				if !printer.Confirm("This cannot be undone. Are you sure?") {
					return core.UserAborted()
				}

				if _, err := c.Exec(ctx, ddl.DropTableIfExists(table)); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "drop table %q", table)
				}
				printer.Success(fmt.Sprintf("table %s dropped", table))
				return nil
			})
		},
	}
}

func modelEmptyTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model:empty-table <Model>",
		Short: "Delete all rows, preserving the structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				printer := output.Default()
				table := schema.TableName

				if !printer.Confirm(fmt.Sprintf("Delete all rows from %q?", table)) {
					return core.UserAborted()
				}

				if _, err := c.Exec(ctx, ddl.TruncateRows(table)); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "empty table %q", table)
				}
				printer.Success(fmt.Sprintf("table %s emptied", table))
				return nil
			})
		},
	}
}

func modelRenameTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model:rename-table <Model> <new-name>",
		Short: "Rename the model's table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newName := args[1]
			if !core.ValidIdentifier(newName) {
				return core.NewError(core.ErrInvalidModel, "invalid table name %q", newName)
			}
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				if _, err := c.Exec(ctx, ddl.RenameTable(schema.TableName, newName)); err != nil {
					return core.WrapError(core.ErrStatementFailed, err,
						"rename table %q to %q", schema.TableName, newName)
				}
				output.Default().Success(fmt.Sprintf("table %s renamed to %s", schema.TableName, newName))
				return nil
			})
		},
	}
}

func modelTableSchemaCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "model:table-schema <Model>",
		Short: "Print the observed schema of the model's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				observed, err := inspect.NewReader(c).ReadTable(ctx, schema.TableName)
				if err != nil {
					return err
				}

				formatter, err := output.NewFormatter(format)
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatSchemas([]*core.Schema{observed.Schema})
				if err != nil {
					return err
				}
				output.Default().Line(formatted)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sql or json")
	return cmd
}

func modelExportTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model:export-table <Model> [file]",
		Short: "Dump one table as SQL (or CSV when the file ends in .csv)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withModelConnection(cmd, args[0], func(ctx context.Context, c *conn.DB, schema *core.Schema) error {
				printer := output.Default()
				fs := afero.NewOsFs()

				name := ""
				if len(args) == 2 {
					name = args[1]
				}

				writer := dump.NewWriter(c, inspect.NewReader(c),
					output.NewProgress(printer.Writer()), nil)

				if strings.HasSuffix(strings.ToLower(name), ".csv") {
					f, path, err := dump.CreateExportFile(fs, name)
					if err != nil {
						return err
					}
					defer f.Close()
					if err := writer.DumpCSV(ctx, f, schema.TableName); err != nil {
						return err
					}
					printer.Success("exported to " + path)
					return nil
				}

				if name == "" {
					name = dump.DefaultFilename(c.Database()+"_"+schema.TableName, dump.SystemClock{}.Now())
				}
				f, path, err := dump.CreateExportFile(fs, name)
				if err != nil {
					return err
				}
				defer f.Close()

				if err := writer.DumpTables(ctx, f, []string{schema.TableName}); err != nil {
					return err
				}
				printer.Success("exported to " + path)
				return nil
			})
		},
	}
}

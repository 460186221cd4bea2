package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/ddl"
	"schemasync/internal/dump"
	"schemasync/internal/inspect"
	"schemasync/internal/output"
	"schemasync/internal/restore"
	"schemasync/internal/seed"
)

func dbCommands() []*cobra.Command {
	return []*cobra.Command{
		dbSchemaCmd(),
		dbExportCmd(),
		dbImportCmd(),
		dbListCmd(),
		dbTablesCmd(),
		dbCreateCmd(),
		dbDropCmd(),
		dbEmptyCmd(),
		dbSeedCmd(),
	}
}

// withConnection opens the configured connection and hands it to the
// command body.
func withConnection(cmd *cobra.Command, fn func(ctx context.Context, c *conn.DB) error) error {
	ctx := cmd.Context()
	c, err := openConnection(ctx, cmd)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func dbSchemaCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "db:schema",
		Short: "Print the observed schema of every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				reader := inspect.NewReader(c)

				tables, err := reader.ListTables(ctx, "")
				if err != nil {
					return err
				}

				schemas := make([]*core.Schema, 0, len(tables))
				for _, table := range tables {
					observed, err := reader.ReadTable(ctx, table)
					if err != nil {
						return err
					}
					schemas = append(schemas, observed.Schema)
				}

				formatter, err := output.NewFormatter(format)
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatSchemas(schemas)
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

func dbExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:export [file]",
		Short: "Dump the whole database to a SQL file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				printer := output.Default()
				reader := inspect.NewReader(c)

				tables, err := reader.ListTables(ctx, "")
				if err != nil {
					return err
				}

				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				if name == "" {
					name = dump.DefaultFilename(c.Database(), dump.SystemClock{}.Now())
				}

				f, path, err := dump.CreateExportFile(afero.NewOsFs(), name)
				if err != nil {
					return err
				}
				defer f.Close()

				writer := dump.NewWriter(c, reader, output.NewProgress(printer.Writer()), nil)
				if err := writer.DumpTables(ctx, f, tables); err != nil {
					return err
				}
				printer.Success(fmt.Sprintf("exported %d tables to %s", len(tables), path))
				return nil
			})
		},
	}
}

func dbImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:import <file>",
		Short: "Replay a SQL dump against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				printer := output.Default()

				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open dump %q: %w", args[0], err)
				}
				defer f.Close()

				restorer := restore.NewRestorer(c, output.NewProgress(printer.Writer()))
				executed, err := restorer.Run(ctx, f)
				if err != nil {
					return err
				}
				printer.Success(fmt.Sprintf("imported %d statements", executed))
				return nil
			})
		},
	}
}

func dbListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:list",
		Short: "List databases visible to the connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				databases, err := inspect.NewReader(c).ListDatabases(ctx)
				if err != nil {
					return err
				}
				printer := output.Default()
				for _, db := range databases {
					printer.Line(db)
				}
				return nil
			})
		},
	}
}

func dbTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:tables [database]",
		Short: "List the tables of a database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				database := ""
				if len(args) == 1 {
					database = args[0]
				}
				tables, err := inspect.NewReader(c).ListTables(ctx, database)
				if err != nil {
					return err
				}
				printer := output.Default()
				for _, table := range tables {
					printer.Line(table)
				}
				return nil
			})
		},
	}
}

func dbCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:create [database]",
		Short: "Create a database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				database := c.Database()
				if len(args) == 1 {
					database = args[0]
				}
				if !core.ValidIdentifier(database) {
					return core.NewError(core.ErrInvalidModel, "invalid database name %q", database)
				}

				stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s DEFAULT CHARACTER SET %s COLLATE %s;",
					ddl.QuoteIdentifier(database), core.DefaultCharset, core.DefaultCollation)
				if _, err := c.Exec(ctx, stmt); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "create database %q", database)
				}
				output.Default().Success(fmt.Sprintf("database %s created", database))
				return nil
			})
		},
	}
}

func dbDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:drop [database]",
		Short: "Drop a database (asks twice)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				printer := output.Default()
				database := c.Database()
				if len(args) == 1 {
					database = args[0]
				}
				if !core.ValidIdentifier(database) {
					return core.NewError(core.ErrInvalidModel, "invalid database name %q", database)
				}

				if !printer.Confirm(fmt.Sprintf("Drop database %q with all its data?", database)) {
					return core.UserAborted()
				}
				if !printer.Confirm("This cannot be undone. Are you sure?") {
					return core.UserAborted()
				}

				stmt := fmt.Sprintf("DROP DATABASE IF EXISTS %s;", ddl.QuoteIdentifier(database))
				if _, err := c.Exec(ctx, stmt); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "drop database %q", database)
				}
				printer.Success(fmt.Sprintf("database %s dropped", database))
				return nil
			})
		},
	}
}

func dbEmptyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:empty",
		Short: "Delete all rows from every table, preserving structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				printer := output.Default()

				if !printer.Confirm(fmt.Sprintf("Delete all rows from every table in %q?", c.Database())) {
					return core.UserAborted()
				}

				tables, err := inspect.NewReader(c).ListTables(ctx, "")
				if err != nil {
					return err
				}

				// The sweep deliberately continues past per-table
				// failures; FK checks are off for its duration.
				if _, err := c.Exec(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "disable FK checks")
				}
				emptied := 0
				for _, table := range tables {
					if _, err := c.Exec(ctx, ddl.TruncateRows(table)); err != nil {
						printer.Warn(fmt.Sprintf("skipped %s: %v", table, err))
						continue
					}
					emptied++
				}
				if _, err := c.Exec(ctx, "SET FOREIGN_KEY_CHECKS=1"); err != nil {
					return core.WrapError(core.ErrStatementFailed, err, "re-enable FK checks")
				}

				printer.Success(fmt.Sprintf("emptied %d of %d tables", emptied, len(tables)))
				return nil
			})
		},
	}
}

func dbSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db:seed [name]",
		Short: "Insert fixture rows from a TOML seed file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, func(ctx context.Context, c *conn.DB) error {
				name := "default"
				if len(args) == 1 {
					name = args[0]
				}

				rows, err := seed.NewSeeder(c).Run(ctx, seed.Resolve(name))
				if err != nil {
					return err
				}
				output.Default().Success(fmt.Sprintf("seeded %d rows", rows))
				return nil
			})
		},
	}
}

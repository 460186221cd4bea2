// Package seed inserts fixture rows from TOML seed files. A seed file
// maps table names to arrays of row tables:
//
//	[[users]]
//	email = "admin@example.com"
//	role  = "admin"
//
// Tables are seeded in name order, rows in file order.
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// SeedsDir is where seed files live, relative to the working directory.
const SeedsDir = "application/seeds"

// Seeder runs seed files against a connection.
type Seeder struct {
	conn conn.Connection
}

// NewSeeder creates a seeder.
func NewSeeder(c conn.Connection) *Seeder {
	return &Seeder{conn: c}
}

// Resolve maps a seed name to its file path.
func Resolve(name string) string {
	if filepath.Ext(name) == "" {
		name += ".toml"
	}
	if filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(SeedsDir, name)
}

// Run parses the seed file and inserts every row, returning the number
// of rows inserted.
func (s *Seeder) Run(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("seed: read %q: %w", path, err)
	}

	var tables map[string][]map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return 0, fmt.Errorf("seed: parse %q: %w", path, err)
	}

	total := 0
	for _, table := range core.SortedKeys(tables) {
		if !core.ValidIdentifier(table) {
			return total, core.NewError(core.ErrInvalidModel, "seed: invalid table name %q", table)
		}
		for _, row := range tables[table] {
			if err := s.insertRow(ctx, table, row); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func (s *Seeder) insertRow(ctx context.Context, table string, row map[string]any) error {
	if len(row) == 0 {
		return nil
	}

	cols := core.SortedKeys(row)
	quoted := make([]string, len(cols))
	holes := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if !core.ValidIdentifier(col) {
			return core.NewError(core.ErrInvalidModel, "seed: invalid column name %q in table %q", col, table)
		}
		quoted[i] = ddl.QuoteIdentifier(col)
		holes[i] = "?"
		args[i] = row[col]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteIdentifier(table), strings.Join(quoted, ","), strings.Join(holes, ","))
	if _, err := s.conn.Exec(ctx, query, args...); err != nil {
		return core.WrapError(core.ErrStatementFailed, err, "seed: insert into %q", table)
	}
	return nil
}

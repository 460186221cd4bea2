package dump

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"

	"schemasync/internal/core"
	"schemasync/internal/ddl"
)

// DumpCSV streams one table as CSV with a header row. NULL values are
// written as empty fields, which is as much as CSV can say.
func (w *Writer) DumpCSV(ctx context.Context, out io.Writer, table string) error {
	rows, err := w.conn.Query(ctx, "SELECT * FROM "+ddl.QuoteIdentifier(table))
	if err != nil {
		return core.WrapError(core.ErrStatementFailed, err, "dump: read rows of %q", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("dump: columns of %q: %w", table, err)
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("dump: write csv header: %w", err)
	}

	raw := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range raw {
		scan[i] = &raw[i]
	}
	record := make([]string, len(cols))

	var count int64
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return fmt.Errorf("dump: scan row of %q: %w", table, err)
		}
		for i, v := range raw {
			record[i] = string(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("dump: write csv row: %w", err)
		}
		count++
		if w.progress != nil && count%progressEveryRows == 0 {
			w.progress.Update("exporting %s: %d rows", table, count)
		}
	}
	if err := rows.Err(); err != nil {
		return core.WrapError(core.ErrStatementFailed, err, "dump: stream rows of %q", table)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("dump: flush csv: %w", err)
	}
	if w.progress != nil {
		w.progress.Update("exporting %s: %d rows", table, count)
		w.progress.Done()
	}
	return nil
}

// Package dump streams the schema and data of tables into a single SQL
// text sink. Rows are fetched through an unbuffered result stream and
// written as multi-row INSERT batches, so arbitrarily large tables dump
// in bounded memory. The output restores cleanly through the restore
// reader and reproduces the source schema and data.
package dump

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/ddl"
	"schemasync/internal/inspect"
	"schemasync/internal/output"
)

const (
	// insertBatchRows is the fixed number of rows per INSERT statement.
	insertBatchRows = 1000
	// progressEveryRows paces the status line updates.
	progressEveryRows = 10000
)

// Clock supplies the timestamps for dump headers and default filenames.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// DefaultFilename derives the conventional export filename for a
// database dump.
func DefaultFilename(database string, now time.Time) string {
	return fmt.Sprintf("%s_backup_%s.sql", database, now.Format("2006-01-02_150405"))
}

// Writer streams dumps of one or many tables.
type Writer struct {
	conn     conn.Connection
	reader   *inspect.Reader
	progress *output.Progress
	clock    Clock
}

// NewWriter creates a dump writer. A nil clock uses the system clock.
func NewWriter(c conn.Connection, reader *inspect.Reader, progress *output.Progress, clock Clock) *Writer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Writer{conn: c, reader: reader, progress: progress, clock: clock}
}

// DumpTables writes the schema and data of the given tables to out, in
// order, inside a FOREIGN_KEY_CHECKS=0 guard.
func (w *Writer) DumpTables(ctx context.Context, out io.Writer, tables []string) error {
	bw := bufio.NewWriterSize(out, 64*1024)

	w.writeHeader(bw, len(tables))

	for _, table := range tables {
		if err := w.dumpTable(ctx, bw, table); err != nil {
			return err
		}
	}

	fmt.Fprintln(bw, "SET FOREIGN_KEY_CHECKS=1;")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("dump: flush: %w", err)
	}
	return nil
}

func (w *Writer) writeHeader(bw *bufio.Writer, tableCount int) {
	fmt.Fprintf(bw, "-- schemasync dump of %s\n", w.conn.Database())
	fmt.Fprintf(bw, "-- generated: %s\n", w.clock.Now().Format(time.DateTime))
	fmt.Fprintf(bw, "-- tables: %d\n", tableCount)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "SET FOREIGN_KEY_CHECKS=0;")
	fmt.Fprintln(bw)
}

func (w *Writer) dumpTable(ctx context.Context, bw *bufio.Writer, table string) error {
	observed, err := w.reader.ReadTable(ctx, table)
	if err != nil {
		return err
	}

	fmt.Fprintf(bw, "%s\n", ddl.DropTableIfExists(table))
	fmt.Fprintf(bw, "%s\n\n", ddl.CreateTable(observed.Schema))

	if err := w.dumpRows(ctx, bw, observed.Schema); err != nil {
		return err
	}
	fmt.Fprintln(bw)
	return nil
}

// dumpRows streams the table data as INSERT batches.
func (w *Writer) dumpRows(ctx context.Context, bw *bufio.Writer, schema *core.Schema) error {
	table := schema.TableName

	rows, err := w.conn.Query(ctx, "SELECT * FROM "+ddl.QuoteIdentifier(table))
	if err != nil {
		return core.WrapError(core.ErrStatementFailed, err, "dump: read rows of %q", table)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("dump: columns of %q: %w", table, err)
	}

	insertPrefix := insertHeader(table, cols)
	raw := make([]sql.RawBytes, len(cols))
	scan := make([]any, len(cols))
	for i := range raw {
		scan[i] = &raw[i]
	}

	var count int64
	inBatch := 0

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return fmt.Errorf("dump: scan row of %q: %w", table, err)
		}

		if inBatch == 0 {
			bw.WriteString(insertPrefix)
		} else {
			bw.WriteString(",\n")
		}
		bw.WriteString(w.renderRow(raw))
		inBatch++
		count++

		if inBatch == insertBatchRows {
			bw.WriteString(";\n")
			inBatch = 0
		}
		if w.progress != nil && count%progressEveryRows == 0 {
			w.progress.Update("dumping %s: %d rows", table, count)
		}
	}
	if err := rows.Err(); err != nil {
		return core.WrapError(core.ErrStatementFailed, err, "dump: stream rows of %q", table)
	}

	if inBatch > 0 {
		bw.WriteString(";\n")
	}
	if w.progress != nil {
		w.progress.Update("dumping %s: %d rows", table, count)
		w.progress.Done()
	}
	return nil
}

func insertHeader(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ddl.QuoteIdentifier(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES\n",
		ddl.QuoteIdentifier(table), strings.Join(quoted, ","))
}

// renderRow renders one parenthesized value tuple, escaping through the
// connection so the output matches the server's literal rules.
func (w *Writer) renderRow(raw []sql.RawBytes) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range raw {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == nil {
			b.WriteString("NULL")
			continue
		}
		b.WriteByte('\'')
		b.WriteString(w.conn.EscapeString(string(v)))
		b.WriteByte('\'')
	}
	b.WriteByte(')')
	return b.String()
}

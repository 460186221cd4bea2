// Package restore replays an SQL stream against a live connection. The
// stream is split on statement boundaries line by line: comment and
// blank lines are skipped, and lines accumulate until one ends in a
// semicolon. Statements execute sequentially; there is no rollback, so a
// failure stops the import with the offending statement in the error.
package restore

import (
	"bufio"
	"context"
	"io"
	"strings"

	"schemasync/internal/conn"
	"schemasync/internal/core"
	"schemasync/internal/output"
)

// progressEveryStatements paces the status line updates.
const progressEveryStatements = 100

// Restorer executes SQL streams.
type Restorer struct {
	conn     conn.Connection
	progress *output.Progress
}

// NewRestorer creates a restorer over a connection.
func NewRestorer(c conn.Connection, progress *output.Progress) *Restorer {
	return &Restorer{conn: c, progress: progress}
}

// Run splits the stream into statements and executes them in order. The
// returned count is the number of statements executed successfully.
func (r *Restorer) Run(ctx context.Context, in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	// INSERT batches are long lines; give the scanner room.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var current strings.Builder
	executed := 0
	lineNo := 0
	stmtStartLine := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		if current.Len() == 0 {
			stmtStartLine = lineNo
		}
		current.WriteString(line)
		current.WriteString("\n")

		if !strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
			continue
		}

		stmt := strings.TrimSpace(current.String())
		current.Reset()

		if _, err := r.conn.Exec(ctx, stmt); err != nil {
			if r.progress != nil {
				r.progress.Done()
			}
			return executed, core.WrapError(core.ErrStatementFailed, err,
				"import failed at line %d: %s", stmtStartLine, stmt)
		}
		executed++

		if r.progress != nil && executed%progressEveryStatements == 0 {
			r.progress.Update("restored %d statements", executed)
		}
	}
	if err := scanner.Err(); err != nil {
		return executed, core.WrapError(core.ErrStatementFailed, err, "import: read stream")
	}

	if r.progress != nil {
		r.progress.Update("restored %d statements", executed)
		r.progress.Done()
	}
	return executed, nil
}

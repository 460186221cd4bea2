package restore

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemasync/internal/conn"
	"schemasync/internal/core"
)

func newMockRestorer(t *testing.T) (*Restorer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRestorer(conn.Wrap(db, "appdb"), nil), mock
}

const sampleDump = `-- schemasync dump of appdb
-- tables: 1

SET FOREIGN_KEY_CHECKS=0;

DROP TABLE IF EXISTS ` + "`t1`" + `;
CREATE TABLE ` + "`t1`" + ` (
  ` + "`id`" + ` INT(11) NOT NULL,
  PRIMARY KEY (` + "`id`" + `)
) ENGINE=InnoDB;

INSERT INTO ` + "`t1`" + ` (` + "`id`" + `) VALUES
('1'),
('2');

SET FOREIGN_KEY_CHECKS=1;
`

func TestRunSplitsOnStatementBoundaries(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec(regexp.QuoteMeta("SET FOREIGN_KEY_CHECKS=0;")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `t1`;")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("SET FOREIGN_KEY_CHECKS=1;")).WillReturnResult(sqlmock.NewResult(0, 0))

	executed, err := r.Run(context.Background(), strings.NewReader(sampleDump))
	require.NoError(t, err)
	assert.Equal(t, 5, executed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipsCommentsAndBlankLines(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))

	executed, err := r.Run(context.Background(), strings.NewReader(`
-- a comment

-- another comment
SELECT 1;
`))
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
}

// A multi-line statement accumulates until the terminating semicolon.
func TestRunMultiLineStatement(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))

	executed, err := r.Run(context.Background(), strings.NewReader(
		"CREATE TABLE t (\n  id INT\n);\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
}

func TestRunFailureCarriesLineAndStatement(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("BROKEN").WillReturnError(assert.AnError)

	input := "SELECT 1;\n-- comment\nBROKEN STATEMENT;\nSELECT 2;\n"
	executed, err := r.Run(context.Background(), strings.NewReader(input))

	require.Error(t, err)
	assert.Equal(t, 1, executed)
	assert.True(t, core.IsKind(err, core.ErrStatementFailed))
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "BROKEN STATEMENT;")
	// Nothing past the failing statement ran.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunTrailingWhitespaceAfterSemicolon(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))

	executed, err := r.Run(context.Background(), strings.NewReader("SELECT 1;   \t\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
}

// Batched INSERT rows produce long lines; the scanner must not choke.
func TestRunVeryLongLine(t *testing.T) {
	r, mock := newMockRestorer(t)

	var b strings.Builder
	b.WriteString("INSERT INTO `t` (`v`) VALUES\n('")
	b.WriteString(strings.Repeat("x", 2<<20))
	b.WriteString("');\n")

	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(0, 1))

	executed, err := r.Run(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
}

// A quoted string containing a semicolon mid-statement is safe as long
// as the batch terminates on its own line, which the dump writer
// guarantees.
func TestRunSemicolonInsideValueOnSameLine(t *testing.T) {
	r, mock := newMockRestorer(t)

	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(0, 1))

	executed, err := r.Run(context.Background(),
		strings.NewReader("INSERT INTO `t` (`v`) VALUES ('a;b');\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, executed)
}

func TestRunEmptyStream(t *testing.T) {
	r, _ := newMockRestorer(t)

	executed, err := r.Run(context.Background(), strings.NewReader("-- only comments\n\n"))
	require.NoError(t, err)
	assert.Zero(t, executed)
}

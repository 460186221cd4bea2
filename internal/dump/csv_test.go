package dump

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCSV(t *testing.T) {
	writer, mock := newMockWriter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users`")).WillReturnRows(
		sqlmock.NewRows([]string{"id", "email", "note"}).
			AddRow(1, "a@example.com", "plain").
			AddRow(2, "b@example.com", "with,comma").
			AddRow(3, "c@example.com", nil))

	var buf bytes.Buffer
	require.NoError(t, writer.DumpCSV(context.Background(), &buf, "users"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Equal(t, "id,email,note", string(lines[0]))
	assert.Equal(t, "1,a@example.com,plain", string(lines[1]))
	assert.Equal(t, `2,b@example.com,"with,comma"`, string(lines[2]))
	assert.Equal(t, "3,c@example.com,", string(lines[3]))
	require.NoError(t, mock.ExpectationsWereMet())
}

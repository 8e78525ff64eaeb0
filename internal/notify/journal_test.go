package notify

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockJournal(t *testing.T) (*Journal, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewJournal(sqlx.NewDb(db, "postgres")), mock
}

func TestJournalInsertsRecord(t *testing.T) {
	j, mock := newMockJournal(t)
	rec := sampleRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_journal")).
		WithArgs(rec.ID, rec.Submitter.ChatID, "Ann", "ann", "italy", "hot", "300", "@ann", "", rec.SubmittedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, j.LogOrder(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalWrapsErrors(t *testing.T) {
	j, mock := newMockJournal(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO order_journal").WillReturnError(boom)

	err := j.LogOrder(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalNil(t *testing.T) {
	assert.Nil(t, NewJournal(nil))
	var j *Journal
	assert.NoError(t, j.LogOrder(context.Background(), sampleRecord()))
}

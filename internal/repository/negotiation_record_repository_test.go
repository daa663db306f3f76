package repository

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"speaker-negotiator/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestNegotiationRecordRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `negotiation_records`")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	offer := 120
	record := &model.NegotiationRecord{
		EventID:  "evt-1",
		Message:  "120?",
		Response: "I can meet you at $130.",
		Rule:     "neutral_counter",
		Outcome:  "counter",
		Offer:    &offer,
		Price:    130,
	}
	require.NoError(t, repo.Create(record))
	assert.Equal(t, uint(7), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNegotiationRecordRepository_FindWithPagination(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRecordRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM .negotiation_records. WHERE rule = \?`).
		WithArgs("fallback").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM .negotiation_records. WHERE rule = \? ORDER BY id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "rule", "message"}).
			AddRow(3, "e3", "fallback", "hmm").
			AddRow(2, "e2", "fallback", "ok"))

	records, total, err := repo.FindWithPagination(0, 2, "fallback")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	assert.Equal(t, "e3", records[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNegotiationRecordRepository_FindBySession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNegotiationRecordRepository(db)

	mock.ExpectQuery(`SELECT \* FROM .negotiation_records. WHERE session_id = \? ORDER BY id ASC`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "rule"}).AddRow(1, "s1", "warranty"))

	records, err := repo.FindBySession("s1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "warranty", records[0].Rule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

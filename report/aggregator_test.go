package report

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/logger"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepo(t *testing.T) (*db.Repo, *models.Book) {
	t.Helper()
	conn, err := db.Open(config.DBConfig{Driver: db.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "report.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := db.NewRepo(conn)
	ctx := context.Background()

	a := &models.Author{ID: uuid.NewString(), Name: "N. K. Jemisin"}
	require.NoError(t, repo.CreateAuthor(ctx, a))
	book := &models.Book{ID: uuid.NewString(), Title: "The Fifth Season", ISBN: "9780316229296", AuthorID: a.ID, TotalCopies: 4}
	require.NoError(t, repo.CreateBook(ctx, book))
	for _, at := range []time.Time{day(2024, 1, 2), day(2024, 1, 9), day(2024, 1, 20), day(2024, 2, 4)} {
		require.NoError(t, repo.CreateBorrowRecord(ctx, &models.BorrowRecord{ID: uuid.NewString(), BookID: book.ID, BorrowerID: "r", BorrowDate: at}))
	}
	return repo, book
}

func TestGenerate_FromRepository(t *testing.T) {
	repo, book := seededRepo(t)
	agg := NewAggregator(repo, 10, logger.Discard())

	rep, err := agg.Generate(context.Background(), Window{})
	require.NoError(t, err)

	assert.Equal(t, []MonthCount{{Month: "2024-01", Count: 3}, {Month: "2024-02", Count: 1}}, rep.Monthly)
	require.Len(t, rep.MostBorrowed, 1)
	assert.Equal(t, book.ID, rep.MostBorrowed[0].BookID)
	assert.Equal(t, "The Fifth Season", rep.MostBorrowed[0].Title)
	assert.Equal(t, 4, rep.MostBorrowed[0].Count)
}

func TestGenerate_ByteIdenticalRuns(t *testing.T) {
	repo, _ := seededRepo(t)
	agg := NewAggregator(repo, 10, logger.Discard())
	from := day(2024, 1, 1)

	first, err := agg.Generate(context.Background(), Window{From: &from})
	require.NoError(t, err)
	second, err := agg.Generate(context.Background(), Window{From: &from})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_RejectsInvertedWindow(t *testing.T) {
	repo, _ := seededRepo(t)
	agg := NewAggregator(repo, 10, logger.Discard())
	from, to := day(2024, 3, 1), day(2024, 2, 1)

	_, err := agg.Generate(context.Background(), Window{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

type failingSource struct{}

func (failingSource) ReportSnapshot(context.Context, *time.Time, *time.Time) ([]models.Book, []models.BorrowRecord, error) {
	return nil, nil, errors.New("connection refused")
}

func TestRunner_FailureStoresNothing(t *testing.T) {
	store := NewMemoryStore(5)
	runner := NewRunner(NewAggregator(failingSource{}, 10, logger.Discard()), store, logger.Discard())

	_, err := runner.Run(context.Background(), "job-1", nil)
	require.Error(t, err)

	_, err = store.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestRunner_StoresWindowedReport(t *testing.T) {
	repo, _ := seededRepo(t)
	store := NewMemoryStore(5)
	runner := NewRunner(NewAggregator(repo, 10, logger.Discard()), store, logger.Discard())

	st, err := runner.Run(context.Background(), "job-2", []byte(`{"from":"2024-02-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Report.TotalBorrows)

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "job-2", latest.JobID)

	_, err = runner.Run(context.Background(), "job-3", []byte(`{"from":`))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

package ledger

import (
	"context"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"
)

type BookRepository interface {
	FindBookByID(ctx context.Context, id string) (*models.Book, error)
	FindBookForUpdate(ctx context.Context, id string) (*models.Book, error)
	UpdateBookDetails(ctx context.Context, id string, d db.BookDetails) error
	UpdateAvailableCopies(ctx context.Context, id string, available int) error
	UpdateCopies(ctx context.Context, id string, total, available int) error
}

type BorrowRecordRepository interface {
	CreateBorrowRecord(ctx context.Context, rec *models.BorrowRecord) error
	FindBorrowRecord(ctx context.Context, id string) (*models.BorrowRecord, error)
	FindBorrowRecordForUpdate(ctx context.Context, id string) (*models.BorrowRecord, error)
	MarkReturned(ctx context.Context, id string, at time.Time) error
	CountOutstanding(ctx context.Context, bookID string) (int64, error)
	ListBorrowRecords(ctx context.Context, f db.RecordFilter) ([]models.BorrowRecord, error)
}

// Store is everything the ledger persists through. Atomic runs fn in one
// transaction; fn must use the Store it is given.
type Store interface {
	BookRepository
	BorrowRecordRepository
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

type repoStore struct{ *db.Repo }

// NewStore adapts the gorm repository to Store.
func NewStore(r *db.Repo) Store { return repoStore{Repo: r} }

func (s repoStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.Repo.Transaction(ctx, func(tx *db.Repo) error {
		return fn(repoStore{Repo: tx})
	})
}

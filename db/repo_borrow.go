package db

import (
	"context"
	"time"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm/clause"
)

func (r *Repo) CreateBorrowRecord(ctx context.Context, rec *models.BorrowRecord) error {
	return translate(r.DB.WithContext(ctx).Create(rec).Error)
}

func (r *Repo) FindBorrowRecord(ctx context.Context, id string) (*models.BorrowRecord, error) {
	var rec models.BorrowRecord
	if err := r.DB.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *Repo) FindBorrowRecordForUpdate(ctx context.Context, id string) (*models.BorrowRecord, error) {
	var rec models.BorrowRecord
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// MarkReturned closes an outstanding record. ErrStale means the record was
// already closed by someone else.
func (r *Repo) MarkReturned(ctx context.Context, id string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("id = ? AND return_date IS NULL", id).
		Updates(map[string]any{"return_date": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *Repo) CountOutstanding(ctx context.Context, bookID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&n).Error
	return n, err
}

type RecordFilter struct {
	BookID     string
	BorrowerID string
	Status     models.RecordStatus // "" means any
	From, To   *time.Time          // borrow_date window, To exclusive
}

// ListBorrowRecords returns records oldest first; ties fall back to id so
// the order is stable.
func (r *Repo) ListBorrowRecords(ctx context.Context, f RecordFilter) ([]models.BorrowRecord, error) {
	q := r.DB.WithContext(ctx).Model(&models.BorrowRecord{})
	if f.BookID != "" {
		q = q.Where("book_id = ?", f.BookID)
	}
	if f.BorrowerID != "" {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	switch f.Status {
	case models.StatusOutstanding:
		q = q.Where("return_date IS NULL")
	case models.StatusReturned:
		q = q.Where("return_date IS NOT NULL")
	}
	if f.From != nil {
		q = q.Where("borrow_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("borrow_date < ?", f.To.UTC())
	}
	var ls []models.BorrowRecord
	if err := q.Order("borrow_date ASC, id ASC").Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}

func (r *Repo) ListAllBooks(ctx context.Context) ([]models.Book, error) {
	var bs []models.Book
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&bs).Error; err != nil {
		return nil, err
	}
	return bs, nil
}

// ReportSnapshot loads every book and the borrow records inside the window
// from a single read-only transaction.
func (r *Repo) ReportSnapshot(ctx context.Context, from, to *time.Time) ([]models.Book, []models.BorrowRecord, error) {
	var (
		books   []models.Book
		records []models.BorrowRecord
	)
	err := r.Snapshot(ctx, func(tx *Repo) error {
		var err error
		if books, err = tx.ListAllBooks(ctx); err != nil {
			return err
		}
		records, err = tx.ListBorrowRecords(ctx, RecordFilter{From: from, To: to})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return books, records, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/google/uuid"
)

type Ledger struct {
	store Store
	acct  *Accountant
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock replaces time.Now for borrow and return dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(store Store, acct *Accountant, log *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, acct: acct, log: log, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Borrow checks out one copy of bookID: the decrement and the new
// OUTSTANDING record commit together or not at all.
func (l *Ledger) Borrow(ctx context.Context, bookID, borrowerID string) (*models.BorrowRecord, error) {
	bookID, borrowerID = strings.TrimSpace(bookID), strings.TrimSpace(borrowerID)
	if bookID == "" || borrowerID == "" {
		err := fmt.Errorf("%w: book_id and borrower_id are required", ErrInvalid)
		observe("borrow", err)
		return nil, err
	}
	if !validID(bookID) {
		err := fmt.Errorf("book %s: %w", bookID, ErrNotFound)
		observe("borrow", err)
		return nil, err
	}

	var rec *models.BorrowRecord
	err := l.acct.Serialize(bookID, func() error {
		return l.store.Atomic(ctx, func(tx Store) error {
			left, err := l.acct.Decrement(ctx, tx, bookID)
			if err != nil {
				return err
			}
			r := &models.BorrowRecord{
				ID:         uuid.NewString(),
				BookID:     bookID,
				BorrowerID: borrowerID,
				BorrowDate: l.now().UTC(),
			}
			if err := tx.CreateBorrowRecord(ctx, r); err != nil {
				return fmt.Errorf("create borrow record: %w", err)
			}
			rec = r
			l.log.Debug("copy decremented", "book_id", bookID, "available_copies", left)
			return nil
		})
	})
	observe("borrow", err)
	if err != nil {
		return nil, err
	}
	l.log.Info("book borrowed", "record_id", rec.ID, "book_id", bookID, "borrower_id", borrowerID)
	return rec, nil
}

// Return closes an OUTSTANDING record and puts its copy back. Returning a
// record twice fails with ErrAlreadyReturned.
func (l *Ledger) Return(ctx context.Context, recordID string) (*models.BorrowRecord, error) {
	rec, err := l.ret(ctx, strings.TrimSpace(recordID))
	observe("return", err)
	if err != nil {
		return nil, err
	}
	l.log.Info("book returned", "record_id", rec.ID, "book_id", rec.BookID, "borrower_id", rec.BorrowerID)
	return rec, nil
}

func (l *Ledger) ret(ctx context.Context, recordID string) (*models.BorrowRecord, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: record_id is required", ErrInvalid)
	}
	if !validID(recordID) {
		return nil, fmt.Errorf("borrow record %s: %w", recordID, ErrNotFound)
	}
	head, err := l.store.FindBorrowRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("borrow record %s: %w", recordID, err)
	}
	if !head.Outstanding() {
		return nil, fmt.Errorf("borrow record %s: %w", recordID, ErrAlreadyReturned)
	}

	var out *models.BorrowRecord
	err = l.acct.Serialize(head.BookID, func() error {
		return l.store.Atomic(ctx, func(tx Store) error {
			// book row first, same order as Borrow and DeleteBook
			if _, err := tx.FindBookForUpdate(ctx, head.BookID); err != nil {
				return fmt.Errorf("book %s: %w", head.BookID, err)
			}
			rec, err := tx.FindBorrowRecordForUpdate(ctx, recordID)
			if err != nil {
				return fmt.Errorf("borrow record %s: %w", recordID, err)
			}
			if !rec.Outstanding() {
				return fmt.Errorf("borrow record %s: %w", recordID, ErrAlreadyReturned)
			}
			if _, err := l.acct.Increment(ctx, tx, rec.BookID); err != nil {
				return err
			}
			at := l.now().UTC()
			if err := tx.MarkReturned(ctx, rec.ID, at); err != nil {
				if errors.Is(err, db.ErrStale) {
					return fmt.Errorf("borrow record %s: %w", recordID, ErrAlreadyReturned)
				}
				return err
			}
			rec.ReturnDate = &at
			rec.UpdatedAt = at
			out = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) Get(ctx context.Context, recordID string) (*models.BorrowRecord, error) {
	rec, err := l.store.FindBorrowRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("borrow record %s: %w", recordID, err)
	}
	return rec, nil
}

// ListOutstanding returns open records oldest first. An empty bookID lists
// every book; an unknown one is ErrNotFound.
func (l *Ledger) ListOutstanding(ctx context.Context, bookID string) ([]models.BorrowRecord, error) {
	if bookID != "" {
		if _, err := l.store.FindBookByID(ctx, bookID); err != nil {
			return nil, fmt.Errorf("book %s: %w", bookID, err)
		}
	}
	return l.store.ListBorrowRecords(ctx, db.RecordFilter{BookID: bookID, Status: models.StatusOutstanding})
}

func (l *Ledger) List(ctx context.Context, f db.RecordFilter) ([]models.BorrowRecord, error) {
	switch f.Status {
	case "", models.StatusOutstanding, models.StatusReturned:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, f.Status)
	}
	return l.store.ListBorrowRecords(ctx, f)
}

// UpdateBook applies the editable details and, when total is set, resizes
// the stock. Both commit together or not at all.
func (l *Ledger) UpdateBook(ctx context.Context, bookID string, d db.BookDetails, total *int) (*models.Book, error) {
	var b *models.Book
	err := l.acct.Serialize(bookID, func() error {
		return l.store.Atomic(ctx, func(tx Store) error {
			if err := tx.UpdateBookDetails(ctx, bookID, d); err != nil {
				return fmt.Errorf("book %s: %w", bookID, err)
			}
			if total != nil {
				if _, err := l.acct.Resize(ctx, tx, bookID, *total); err != nil {
					return err
				}
			}
			var err error
			b, err = tx.FindBookByID(ctx, bookID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("book updated", "book_id", bookID, "total_copies", b.TotalCopies, "available_copies", b.AvailableCopies)
	return b, nil
}

// SetTotalCopies resizes a book's stock under the same per-book lock as
// borrow and return.
func (l *Ledger) SetTotalCopies(ctx context.Context, bookID string, total int) (*models.Book, error) {
	var b *models.Book
	err := l.acct.Serialize(bookID, func() error {
		return l.store.Atomic(ctx, func(tx Store) error {
			var err error
			b, err = l.acct.Resize(ctx, tx, bookID, total)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("book stock resized", "book_id", bookID, "total_copies", b.TotalCopies, "available_copies", b.AvailableCopies)
	return b, nil
}

type Availability struct {
	BookID          string `json:"book_id"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	Outstanding     int64  `json:"outstanding"`
	Consistent      bool   `json:"consistent"`
}

// Audit checks outstanding + available == total for one book.
func (l *Ledger) Audit(ctx context.Context, bookID string) (*Availability, error) {
	var av *Availability
	err := l.store.Atomic(ctx, func(tx Store) error {
		b, err := tx.FindBookByID(ctx, bookID)
		if err != nil {
			return fmt.Errorf("book %s: %w", bookID, err)
		}
		out, err := tx.CountOutstanding(ctx, bookID)
		if err != nil {
			return err
		}
		av = &Availability{
			BookID:          b.ID,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
			Outstanding:     out,
			Consistent:      out+int64(b.AvailableCopies) == int64(b.TotalCopies) && b.AvailableCopies >= 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !av.Consistent {
		l.log.Error("availability invariant violated", "book_id", bookID,
			"total_copies", av.TotalCopies, "available_copies", av.AvailableCopies, "outstanding", av.Outstanding)
	}
	return av, nil
}

// validID rejects ids a uuid column would refuse with a syntax error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

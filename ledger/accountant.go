package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"Gin_postgres_redis_library/models"
)

// Accountant is the only writer of a book's copy counters. Decrement,
// Increment and Resize must run inside a transaction (they lock the book
// row) and inside Serialize for the same book.
type Accountant struct {
	locks *keyedMutex
	log   *slog.Logger
}

func NewAccountant(log *slog.Logger) *Accountant {
	return &Accountant{locks: newKeyedMutex(), log: log}
}

// Serialize runs fn while holding the exclusive lock for bookID. Different
// books never wait on each other.
func (a *Accountant) Serialize(bookID string, fn func() error) error {
	unlock := a.locks.Lock(bookID)
	defer unlock()
	return fn()
}

// Decrement takes one copy off the shelf and returns the new count.
func (a *Accountant) Decrement(ctx context.Context, books BookRepository, bookID string) (int, error) {
	b, err := books.FindBookForUpdate(ctx, bookID)
	if err != nil {
		return 0, fmt.Errorf("book %s: %w", bookID, err)
	}
	if b.AvailableCopies <= 0 {
		return 0, fmt.Errorf("book %s: %w", bookID, ErrUnavailable)
	}
	n := b.AvailableCopies - 1
	if err := books.UpdateAvailableCopies(ctx, bookID, n); err != nil {
		return 0, fmt.Errorf("decrement book %s: %w", bookID, err)
	}
	return n, nil
}

// Increment puts one copy back. Going above total_copies means a double
// return slipped through somewhere; it is reported, never clamped.
func (a *Accountant) Increment(ctx context.Context, books BookRepository, bookID string) (int, error) {
	b, err := books.FindBookForUpdate(ctx, bookID)
	if err != nil {
		return 0, fmt.Errorf("book %s: %w", bookID, err)
	}
	n := b.AvailableCopies + 1
	if n > b.TotalCopies {
		overCapacityTotal.Inc()
		a.log.Error("availability over capacity",
			"book_id", bookID,
			"available_copies", b.AvailableCopies,
			"total_copies", b.TotalCopies)
		return 0, fmt.Errorf("book %s: %w", bookID, ErrOverCapacity)
	}
	if err := books.UpdateAvailableCopies(ctx, bookID, n); err != nil {
		return 0, fmt.Errorf("increment book %s: %w", bookID, err)
	}
	return n, nil
}

// Resize changes total_copies and derives available_copies from the
// outstanding records, keeping outstanding + available == total.
func (a *Accountant) Resize(ctx context.Context, s Store, bookID string, total int) (*models.Book, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: total_copies must not be negative", ErrInvalid)
	}
	b, err := s.FindBookForUpdate(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", bookID, err)
	}
	out, err := s.CountOutstanding(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if int64(total) < out {
		return nil, fmt.Errorf("book %s has %d outstanding, cannot set %d: %w", bookID, out, total, ErrInvalidTotal)
	}
	available := total - int(out)
	if err := s.UpdateCopies(ctx, bookID, total, available); err != nil {
		return nil, err
	}
	b.TotalCopies, b.AvailableCopies = total, available
	return b, nil
}

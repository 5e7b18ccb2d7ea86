package ledger

import (
	"errors"

	"Gin_postgres_redis_library/db"
)

var (
	// ErrNotFound is db.ErrNotFound, so callers can match either.
	ErrNotFound        = db.ErrNotFound
	ErrUnavailable     = errors.New("no copies available")
	ErrAlreadyReturned = errors.New("borrow record already returned")
	// ErrOverCapacity means the ledger and the copy counters disagree. It
	// must never be reached in normal operation.
	ErrOverCapacity = errors.New("available copies would exceed total copies")
	ErrInvalidTotal = errors.New("total copies below outstanding borrows")
	ErrInvalid      = errors.New("invalid request")
)

package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/ledger"
	"Gin_postgres_redis_library/report"
	"Gin_postgres_redis_library/scheduler"

	"github.com/gin-gonic/gin"
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeUnavailable     = "UNAVAILABLE"
	CodeAlreadyReturned = "ALREADY_RETURNED"
	CodeOverCapacity    = "OVER_CAPACITY"
	CodeInvalidTotal    = "INVALID_TOTAL"
	CodeValidation      = "VALIDATION"
	CodeConflict        = "CONFLICT"
	CodeQueueFull       = "QUEUE_FULL"
	CodeInternal        = "INTERNAL"
)

func errInvalidParam(key, msg string) error {
	return fmt.Errorf("%w: %s %s", ledger.ErrInvalid, key, msg)
}

// statusOf maps domain errors to an HTTP status and error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, report.ErrNoReport):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ledger.ErrUnavailable):
		return http.StatusConflict, CodeUnavailable
	case errors.Is(err, ledger.ErrAlreadyReturned):
		return http.StatusConflict, CodeAlreadyReturned
	case errors.Is(err, ledger.ErrOverCapacity):
		return http.StatusInternalServerError, CodeOverCapacity
	case errors.Is(err, ledger.ErrInvalidTotal):
		return http.StatusConflict, CodeInvalidTotal
	case errors.Is(err, db.ErrDuplicate):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, ledger.ErrInvalid), errors.Is(err, report.ErrInvalidWindow), errors.Is(err, db.ErrReference):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, scheduler.ErrQueueFull):
		return http.StatusServiceUnavailable, CodeQueueFull
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Srv) fail(c *gin.Context, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if code == CodeInternal {
		s.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.JSON(status, app.H{"error": msg, "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": msg, "code": CodeValidation})
}

package ledger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_ledger_operations_total",
		Help: "Borrow and return operations by outcome",
	}, []string{"op", "result"})

	overCapacityTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_ledger_over_capacity_total",
		Help: "Increments rejected because available copies would exceed total copies",
	})
)

func observe(op string, err error) {
	operationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrAlreadyReturned):
		return "already_returned"
	case errors.Is(err, ErrOverCapacity):
		return "over_capacity"
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrInvalidTotal):
		return "invalid"
	default:
		return "error"
	}
}

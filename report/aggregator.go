package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Gin_postgres_redis_library/models"
)

// Source reads books and borrow records from one consistent snapshot.
// *db.Repo implements it.
type Source interface {
	ReportSnapshot(ctx context.Context, from, to *time.Time) ([]models.Book, []models.BorrowRecord, error)
}

var ErrInvalidWindow = errors.New("invalid report window")

type Aggregator struct {
	src  Source
	topN int
	log  *slog.Logger
}

func NewAggregator(src Source, topN int, log *slog.Logger) *Aggregator {
	return &Aggregator{src: src, topN: topN, log: log}
}

// Generate never writes. A failed load yields no report at all.
func (a *Aggregator) Generate(ctx context.Context, w Window) (*Report, error) {
	w = w.normalize()
	if w.From != nil && w.To != nil && !w.From.Before(*w.To) {
		return nil, fmt.Errorf("%w: from %s is not before to %s", ErrInvalidWindow, w.From.Format(time.RFC3339), w.To.Format(time.RFC3339))
	}
	start := time.Now()
	books, records, err := a.src.ReportSnapshot(ctx, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("load report snapshot: %w", err)
	}
	rep := Aggregate(records, books, w, a.topN)
	a.log.Info("report aggregated",
		"records", len(records),
		"books", len(books),
		"total_borrows", rep.TotalBorrows,
		"duration", time.Since(start))
	return &rep, nil
}

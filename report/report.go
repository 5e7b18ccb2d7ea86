// Package report aggregates the borrow ledger into borrowing statistics.
package report

import (
	"sort"
	"time"

	"Gin_postgres_redis_library/models"
)

const monthLayout = "2006-01"

// Window bounds a report by borrow_date. From is inclusive, To exclusive;
// nil means unbounded.
type Window struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

func (w Window) normalize() Window {
	out := Window{}
	if w.From != nil {
		f := w.From.UTC()
		out.From = &f
	}
	if w.To != nil {
		t := w.To.UTC()
		out.To = &t
	}
	return out
}

func (w Window) contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

type BookCount struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	ISBN   string `json:"isbn"`
	Count  int    `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM, UTC
	Count int    `json:"count"`
}

// Report is a deterministic function of the ledger snapshot and window; it
// carries no generation time.
type Report struct {
	Window       Window       `json:"window"`
	TotalBorrows int          `json:"total_borrows"`
	Outstanding  int          `json:"outstanding"`
	Returned     int          `json:"returned"`
	DistinctBook int          `json:"distinct_books"`
	MostBorrowed []BookCount  `json:"most_borrowed"`
	Monthly      []MonthCount `json:"monthly"`
}

// Aggregate groups records by book and by calendar month. Ranking is count
// descending, then book_id ascending. topN <= 0 keeps every book.
func Aggregate(records []models.BorrowRecord, books []models.Book, w Window, topN int) Report {
	w = w.normalize()
	byID := make(map[string]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	perBook := map[string]int{}
	perMonth := map[string]int{}
	rep := Report{Window: w, MostBorrowed: []BookCount{}, Monthly: []MonthCount{}}
	for _, r := range records {
		at := r.BorrowDate.UTC()
		if !w.contains(at) {
			continue
		}
		rep.TotalBorrows++
		if r.Outstanding() {
			rep.Outstanding++
		} else {
			rep.Returned++
		}
		perBook[r.BookID]++
		perMonth[at.Format(monthLayout)]++
	}
	rep.DistinctBook = len(perBook)

	for id, n := range perBook {
		b := byID[id]
		rep.MostBorrowed = append(rep.MostBorrowed, BookCount{BookID: id, Title: b.Title, ISBN: b.ISBN, Count: n})
	}
	sort.Slice(rep.MostBorrowed, func(i, j int) bool {
		a, b := rep.MostBorrowed[i], rep.MostBorrowed[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.BookID < b.BookID
	})
	if topN > 0 && len(rep.MostBorrowed) > topN {
		rep.MostBorrowed = rep.MostBorrowed[:topN]
	}

	for m, n := range perMonth {
		rep.Monthly = append(rep.Monthly, MonthCount{Month: m, Count: n})
	}
	sort.Slice(rep.Monthly, func(i, j int) bool { return rep.Monthly[i].Month < rep.Monthly[j].Month })
	return rep
}

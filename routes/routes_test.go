package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t   *testing.T
	app *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		AppEnv:    "test",
		WebOrigin: "http://localhost:5173",
		DB:        config.DBConfig{Driver: db.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "http.db")},
		Report:    config.ReportConfig{Interval: 24 * time.Hour, TopN: 10, History: 5},
		Worker:    config.WorkerConfig{Concurrency: 1},
	}
	a, err := app.New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	RegisterRoutes(a.Router, a)
	return &testServer{t: t, app: a}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type apiErr struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type record struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	BorrowerID string     `json:"borrower_id"`
	ReturnDate *time.Time `json:"return_date"`
	Status     string     `json:"status"`
}

type book struct {
	ID              string `json:"id"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

func (s *testServer) expectError(w *httptest.ResponseRecorder, status int, code string) {
	s.t.Helper()
	require.Equal(s.t, status, w.Code, w.Body.String())
	assert.Equal(s.t, code, decode[apiErr](s.t, w).Code)
}

func (s *testServer) seedBook(isbn string, copies int) book {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/authors", map[string]any{"name": "Italo Calvino"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	author := decode[struct {
		ID string `json:"id"`
	}](s.t, w)

	w = s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "Invisible Cities", "isbn": isbn, "author_id": author.ID, "total_copies": copies,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[book](s.t, w)
}

func (s *testServer) borrow(bookID, borrower string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/borrow", map[string]string{"book_id": bookID, "borrower_id": borrower})
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	s.expectError(s.borrow("missing", "u1"), http.StatusNotFound, "NOT_FOUND")
	s.expectError(s.do(http.MethodPost, "/api/return", map[string]string{"record_id": "missing"}), http.StatusNotFound, "NOT_FOUND")
	w = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `library_ledger_operations_total{op="borrow",result="not_found"}`)
	assert.Contains(t, w.Body.String(), `library_ledger_operations_total{op="return",result="not_found"}`)
}

func TestBorrowReturnOverHTTP(t *testing.T) {
	s := newTestServer(t)
	b := s.seedBook("9780156453806", 2)
	assert.Equal(t, 2, b.AvailableCopies)

	w := s.borrow(b.ID, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[record](t, w)
	assert.Equal(t, "OUTSTANDING", first.Status)
	assert.Nil(t, first.ReturnDate)

	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "bob").Code)
	s.expectError(s.borrow(b.ID, "carol"), http.StatusConflict, "UNAVAILABLE")

	w = s.do(http.MethodPost, "/api/return", map[string]string{"record_id": first.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	returned := decode[record](t, w)
	assert.Equal(t, "RETURNED", returned.Status)
	assert.NotNil(t, returned.ReturnDate)

	s.expectError(s.do(http.MethodPost, "/api/return", map[string]string{"record_id": first.ID}), http.StatusConflict, "ALREADY_RETURNED")

	w = s.do(http.MethodGet, "/api/books/"+b.ID+"/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"book_id":"`+b.ID+`","total_copies":2,"available_copies":1,"outstanding":1,"consistent":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/books/"+b.ID+"/outstanding", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode[struct{ Items []record }](t, w)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "bob", out.Items[0].BorrowerID)

	w = s.do(http.MethodGet, "/api/borrowrecords?status=returned&book_id="+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[struct{ Items []record }](t, w)
	require.Len(t, recs.Items, 1)
	assert.Equal(t, first.ID, recs.Items[0].ID)

	w = s.do(http.MethodGet, "/api/borrowrecords/"+first.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RETURNED", decode[record](t, w).Status)
}

func TestBorrowReturnValidation(t *testing.T) {
	s := newTestServer(t)

	s.expectError(s.do(http.MethodPost, "/api/borrow", map[string]string{"book_id": "x"}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.borrow("no-such-book", "alice"), http.StatusNotFound, "NOT_FOUND")
	s.expectError(s.do(http.MethodPost, "/api/return", map[string]string{}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPost, "/api/return", map[string]string{"record_id": "nope"}), http.StatusNotFound, "NOT_FOUND")
	s.expectError(s.do(http.MethodGet, "/api/borrowrecords?status=lost", nil), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodGet, "/api/borrowrecords?from=yesterday", nil), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodGet, "/api/books/no-such-book/outstanding", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestBookCatalog(t *testing.T) {
	s := newTestServer(t)
	b := s.seedBook("9780156453806", 1)

	w := s.do(http.MethodGet, "/api/books/"+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// duplicate ISBN
	w = s.do(http.MethodGet, "/api/books/"+b.ID, nil)
	authorID := decode[struct {
		AuthorID string `json:"author_id"`
	}](t, w).AuthorID
	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "Copy", "isbn": "9780156453806", "author_id": authorID, "total_copies": 1,
	}), http.StatusConflict, "CONFLICT")

	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "No author", "isbn": "9780000000001", "author_id": "ghost", "total_copies": 1,
	}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "No copies", "isbn": "9780000000002", "author_id": authorID,
	}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "Negative", "isbn": "9780000000003", "author_id": authorID, "total_copies": -1,
	}), http.StatusBadRequest, "VALIDATION")

	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "Short ISBN", "isbn": "123", "author_id": authorID, "total_copies": 1,
	}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPost, "/api/books", map[string]any{
		"title": "   ", "isbn": "9780000000004", "author_id": authorID, "total_copies": 1,
	}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"isbn": "", "title": ""}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"title": " "}), http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"isbn": "97801564538"}), http.StatusBadRequest, "VALIDATION")

	w = s.do(http.MethodGet, "/api/books/"+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Invisible Cities"`)
	assert.Contains(t, w.Body.String(), `"isbn":"9780156453806"`)

	w = s.do(http.MethodGet, "/api/books?available=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct{ Items []book }](t, w).Items, 1)

	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "alice").Code)
	w = s.do(http.MethodGet, "/api/books?available=true", nil)
	assert.Empty(t, decode[struct{ Items []book }](t, w).Items)
}

func TestUpdateBookCopies(t *testing.T) {
	s := newTestServer(t)
	b := s.seedBook("9780156453806", 2)
	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "alice").Code)
	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "bob").Code)

	s.expectError(s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"total_copies": 1}), http.StatusConflict, "INVALID_TOTAL")

	// a rejected resize leaves the other fields untouched
	s.expectError(s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"title": "CHANGED", "total_copies": 0}), http.StatusConflict, "INVALID_TOTAL")
	w := s.do(http.MethodGet, "/api/books/"+b.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Invisible Cities"`)
	assert.Equal(t, 2, decode[book](t, w).TotalCopies)

	w = s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"title": "Le città invisibili", "total_copies": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[book](t, w)
	assert.Equal(t, 5, got.TotalCopies)
	assert.Equal(t, 3, got.AvailableCopies)

	// available_copies is not client-writable
	w = s.do(http.MethodPut, "/api/books/"+b.ID, map[string]any{"available_copies": 99})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[book](t, w).AvailableCopies)

	s.expectError(s.do(http.MethodPut, "/api/books/missing", map[string]any{"title": "x"}), http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBookCascades(t *testing.T) {
	s := newTestServer(t)
	b := s.seedBook("9780156453806", 1)
	w := s.borrow(b.ID, "alice")
	require.Equal(t, http.StatusCreated, w.Code)
	rec := decode[record](t, w)

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/books/"+b.ID, nil).Code)
	s.expectError(s.do(http.MethodGet, "/api/books/"+b.ID, nil), http.StatusNotFound, "NOT_FOUND")
	s.expectError(s.do(http.MethodGet, "/api/borrowrecords/"+rec.ID, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestAuthors(t *testing.T) {
	s := newTestServer(t)

	s.expectError(s.do(http.MethodPost, "/api/authors", map[string]any{"name": "  "}), http.StatusBadRequest, "VALIDATION")

	w := s.do(http.MethodPost, "/api/authors", map[string]any{"name": "Octavia Butler"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	w = s.do(http.MethodPut, "/api/authors/"+id, map[string]any{"bio": "Kindred, Parable of the Sower"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Kindred")

	w = s.do(http.MethodGet, "/api/authors?q=octavia", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct{ Items []map[string]any }](t, w).Items, 1)

	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/authors/"+id, nil).Code)
	s.expectError(s.do(http.MethodGet, "/api/authors/"+id, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	b := s.seedBook("9780156453806", 3)
	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "alice").Code)
	require.Equal(t, http.StatusCreated, s.borrow(b.ID, "bob").Code)

	s.expectError(s.do(http.MethodGet, "/api/reports/latest", nil), http.StatusNotFound, "NOT_FOUND")

	w := s.do(http.MethodGet, "/api/reports/preview", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[struct {
		TotalBorrows int `json:"total_borrows"`
		Outstanding  int `json:"outstanding"`
	}](t, w)
	assert.Equal(t, 2, preview.TotalBorrows)
	assert.Equal(t, 2, preview.Outstanding)

	s.expectError(s.do(http.MethodGet, "/api/reports/preview?from=2024-02-01T00:00:00Z&to=2024-01-01T00:00:00Z", nil),
		http.StatusBadRequest, "VALIDATION")
	s.expectError(s.do(http.MethodPost, "/api/reports", map[string]any{
		"from": "2024-02-01T00:00:00Z", "to": "2024-01-01T00:00:00Z",
	}), http.StatusBadRequest, "VALIDATION")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.app.Worker.Run(ctx) }()

	w = s.do(http.MethodPost, "/api/reports", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := decode[struct {
		JobID string `json:"job_id"`
	}](t, w).JobID
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		return s.do(http.MethodGet, "/api/reports/latest", nil).Code == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	latest := decode[struct {
		JobID  string `json:"job_id"`
		Report struct {
			TotalBorrows int `json:"total_borrows"`
		} `json:"report"`
	}](t, s.do(http.MethodGet, "/api/reports/latest", nil))
	assert.Equal(t, jobID, latest.JobID)
	assert.Equal(t, 2, latest.Report.TotalBorrows)

	w = s.do(http.MethodGet, "/api/reports/history?n=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct{ Items []map[string]any }](t, w).Items, 1)
}

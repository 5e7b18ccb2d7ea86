// controllers/srv.go
package controllers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/ledger"
	"Gin_postgres_redis_library/report"
	"Gin_postgres_redis_library/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo    *db.Repo
	Ledger  *ledger.Ledger
	Reports *report.Runner
	Trigger *scheduler.Trigger
	Log     *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    a.Repo,
		Ledger:  a.Ledger,
		Reports: a.Reports,
		Trigger: a.Trigger,
		Log:     a.Log,
	}
}

// --- helpers ---

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, errInvalidParam(key, "must be an RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errInvalidParam(key, "must be a non-negative integer")
	}
	return n, nil
}

// idParam reads :id. Malformed uuids are answered as not found, since a
// postgres uuid column rejects them with a syntax error.
func (s *Srv) idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !isUUID(id) {
		s.fail(c, fmt.Errorf("id %q: %w", id, db.ErrNotFound))
		return "", false
	}
	return id, true
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/report"

	"github.com/gin-gonic/gin"
)

const defaultHistory = 10

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

func checkWindow(w report.Window) error {
	if w.From != nil && w.To != nil && !w.From.Before(*w.To) {
		return fmt.Errorf("%w: from must be before to", report.ErrInvalidWindow)
	}
	return nil
}

// POST /api/reports {from?, to?}：只入队，由 worker 生成
func (rc *ReportController) Enqueue(c *gin.Context) {
	var w report.Window
	if err := c.ShouldBindJSON(&w); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := checkWindow(w); err != nil {
		rc.fail(c, err)
		return
	}
	var payload any
	if w.From != nil || w.To != nil {
		payload = w
	}
	job, err := rc.Trigger.Enqueue(c.Request.Context(), report.JobName, payload)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, app.H{"job_id": job.ID})
}

func (rc *ReportController) Latest(c *gin.Context) {
	st, err := rc.Reports.Store().Latest(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/reports/history?n=
func (rc *ReportController) History(c *gin.Context) {
	n, err := queryInt(c, "n", defaultHistory)
	if err != nil {
		rc.fail(c, err)
		return
	}
	items, err := rc.Reports.Store().History(c.Request.Context(), n)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// GET /api/reports/preview?from=&to=：同步生成，不落库
func (rc *ReportController) Preview(c *gin.Context) {
	var (
		w   report.Window
		err error
	)
	if w.From, err = queryTime(c, "from"); err != nil {
		rc.fail(c, err)
		return
	}
	if w.To, err = queryTime(c, "to"); err != nil {
		rc.fail(c, err)
		return
	}
	rep, err := rc.Reports.Aggregator().Generate(c.Request.Context(), w)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// controllers/borrow_controller.go
package controllers

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

type BorrowController struct{ *Srv }

func NewBorrowController(s *Srv) *BorrowController { return &BorrowController{Srv: s} }

type BorrowReq struct {
	BookID     string `json:"book_id" binding:"required"`
	BorrowerID string `json:"borrower_id" binding:"required"`
}

// 借出
func (bc *BorrowController) Borrow(c *gin.Context) {
	var req BorrowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	rec, err := bc.Ledger.Borrow(c.Request.Context(), req.BookID, req.BorrowerID)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type ReturnReq struct {
	RecordID string `json:"record_id" binding:"required"`
}

// 归还
func (bc *BorrowController) Return(c *gin.Context) {
	var req ReturnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	rec, err := bc.Ledger.Return(c.Request.Context(), req.RecordID)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// 借还记录 ?book_id=&borrower_id=&status=outstanding|returned（不区分大小写）&from=&to=
func (bc *BorrowController) ListRecords(c *gin.Context) {
	f := db.RecordFilter{
		BookID:     c.Query("book_id"),
		BorrowerID: c.Query("borrower_id"),
		Status:     models.RecordStatus(strings.ToUpper(c.Query("status"))),
	}
	if f.BookID != "" && !isUUID(f.BookID) {
		bc.fail(c, errInvalidParam("book_id", "must be a uuid"))
		return
	}
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		bc.fail(c, err)
		return
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		bc.fail(c, err)
		return
	}
	recs, err := bc.Ledger.List(c.Request.Context(), f)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": recs})
}

func (bc *BorrowController) GetRecord(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	rec, err := bc.Ledger.Get(c.Request.Context(), id)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

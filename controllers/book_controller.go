package controllers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const isbnLen = 13

type BookController struct{ *Srv }

func NewBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// GET /api/books?q=&author_id=&available=true
func (bc *BookController) ListBooks(c *gin.Context) {
	q := db.BooksQuery{
		Q:         c.Query("q"),
		AuthorID:  c.Query("author_id"),
		Available: c.Query("available") == "true",
	}
	rows, err := bc.Repo.ListBooks(c.Request.Context(), q)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// available_copies 不接受客户端输入，创建时等于 total_copies
func (bc *BookController) CreateBook(c *gin.Context) {
	var in struct {
		Title       string `json:"title" binding:"required,max=255"`
		ISBN        string `json:"isbn" binding:"required"`
		AuthorID    string `json:"author_id" binding:"required,uuid"`
		TotalCopies *int   `json:"total_copies" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	title, isbn := strings.TrimSpace(in.Title), strings.TrimSpace(in.ISBN)
	if msg := checkBookText(&title, &isbn); msg != "" {
		badRequest(c, msg)
		return
	}
	b := &models.Book{
		ID:          uuid.NewString(),
		Title:       title,
		ISBN:        isbn,
		AuthorID:    in.AuthorID,
		TotalCopies: *in.TotalCopies,
	}
	if err := bc.Repo.CreateBook(c.Request.Context(), b); err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (bc *BookController) GetBook(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	b, err := bc.Repo.FindBookByID(c.Request.Context(), id)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PUT /api/books/:id
// 详情和 total_copies 在同一事务里提交，任一失败都不落库
func (bc *BookController) UpdateBook(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	var in struct {
		Title       *string `json:"title" binding:"omitempty,max=255"`
		ISBN        *string `json:"isbn"`
		AuthorID    *string `json:"author_id" binding:"omitempty,uuid"`
		TotalCopies *int    `json:"total_copies" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if in.Title != nil {
		*in.Title = strings.TrimSpace(*in.Title)
	}
	if in.ISBN != nil {
		*in.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if msg := checkBookText(in.Title, in.ISBN); msg != "" {
		badRequest(c, msg)
		return
	}
	b, err := bc.Ledger.UpdateBook(c.Request.Context(), id, db.BookDetails{Title: in.Title, ISBN: in.ISBN, AuthorID: in.AuthorID}, in.TotalCopies)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /api/books/:id（连带删除借阅记录）
func (bc *BookController) DeleteBook(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	if err := bc.Repo.DeleteBook(c.Request.Context(), id); err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/books/:id/availability
func (bc *BookController) Availability(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	av, err := bc.Ledger.Audit(c.Request.Context(), id)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// GET /api/books/:id/outstanding，按借出时间从早到晚
func (bc *BookController) Outstanding(c *gin.Context) {
	id, ok := bc.idParam(c)
	if !ok {
		return
	}
	recs, err := bc.Ledger.ListOutstanding(c.Request.Context(), id)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": recs})
}

// checkBookText validates trimmed title and ISBN; nil means not supplied.
func checkBookText(title, isbn *string) string {
	if title != nil && *title == "" {
		return "title must not be blank"
	}
	if isbn != nil && utf8.RuneCountInString(*isbn) != isbnLen {
		return "isbn must be exactly 13 characters"
	}
	return ""
}

package controllers

import (
	"net/http"
	"strings"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthorController struct{ *Srv }

func NewAuthorController(s *Srv) *AuthorController { return &AuthorController{Srv: s} }

// GET /api/authors?q=
func (ac *AuthorController) ListAuthors(c *gin.Context) {
	as, err := ac.Repo.ListAuthors(c.Request.Context(), c.Query("q"))
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": as})
}

func (ac *AuthorController) CreateAuthor(c *gin.Context) {
	var in struct {
		Name string  `json:"name" binding:"required,max=255"`
		Bio  *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	a := &models.Author{ID: uuid.NewString(), Name: strings.TrimSpace(in.Name), Bio: in.Bio}
	if a.Name == "" {
		badRequest(c, "name must not be blank")
		return
	}
	if err := ac.Repo.CreateAuthor(c.Request.Context(), a); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (ac *AuthorController) GetAuthor(c *gin.Context) {
	id, ok := ac.idParam(c)
	if !ok {
		return
	}
	a, err := ac.Repo.FindAuthorByID(c.Request.Context(), id)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// PUT /api/authors/:id，只更新传入的字段
func (ac *AuthorController) UpdateAuthor(c *gin.Context) {
	id, ok := ac.idParam(c)
	if !ok {
		return
	}
	var in struct {
		Name *string `json:"name" binding:"omitempty,max=255"`
		Bio  *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		badRequest(c, "name must not be blank")
		return
	}
	a, err := ac.Repo.UpdateAuthor(c.Request.Context(), id, db.AuthorUpdate{Name: in.Name, Bio: in.Bio})
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DELETE /api/authors/:id（连带删除其书籍和借阅记录）
func (ac *AuthorController) DeleteAuthor(c *gin.Context) {
	id, ok := ac.idParam(c)
	if !ok {
		return
	}
	if err := ac.Repo.DeleteAuthor(c.Request.Context(), id); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

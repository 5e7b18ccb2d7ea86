package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm"
)

func (r *Repo) CreateAuthor(ctx context.Context, a *models.Author) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *Repo) FindAuthorByID(ctx context.Context, id string) (*models.Author, error) {
	var a models.Author
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *Repo) ListAuthors(ctx context.Context, q string) ([]models.Author, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Author{})
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var as []models.Author
	if err := tx.Order("name ASC, id ASC").Find(&as).Error; err != nil {
		return nil, err
	}
	return as, nil
}

type AuthorUpdate struct {
	Name *string
	Bio  *string
}

func (r *Repo) UpdateAuthor(ctx context.Context, id string, in AuthorUpdate) (*models.Author, error) {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Author{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindAuthorByID(ctx, id)
}

// DeleteAuthor removes the author together with every book it wrote and
// every borrow record of those books, in one transaction.
func (r *Repo) DeleteAuthor(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *Repo) error {
		if _, err := tx.FindAuthorByID(ctx, id); err != nil {
			return err
		}
		books := tx.DB.Model(&models.Book{}).Select("id").Where("author_id = ?", id)
		if err := tx.DB.Where("book_id IN (?)", books).Delete(&models.BorrowRecord{}).Error; err != nil {
			return err
		}
		if err := tx.DB.Where("author_id = ?", id).Delete(&models.Book{}).Error; err != nil {
			return err
		}
		return tx.DB.Delete(&models.Author{ID: id}).Error
	})
}

func (r *Repo) authorExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Author{}).Where("id = ?", id).Count(&n).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, err
	}
	return n > 0, nil
}

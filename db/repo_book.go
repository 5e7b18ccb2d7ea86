package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_library/models"

	"gorm.io/gorm/clause"
)

// CreateBook inserts a book with every copy available.
func (r *Repo) CreateBook(ctx context.Context, b *models.Book) error {
	return r.Transaction(ctx, func(tx *Repo) error {
		ok, err := tx.authorExists(ctx, b.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("author %s: %w", b.AuthorID, ErrReference)
		}
		b.AvailableCopies = b.TotalCopies
		b.Author = nil
		return translate(tx.DB.Create(b).Error)
	})
}

func (r *Repo) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).Preload("Author").First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// BookRow is a book joined with its current outstanding borrow count.
type BookRow struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ISBN            string    `gorm:"column:isbn" json:"isbn"`
	AuthorID        string    `json:"author_id"`
	AuthorName      string    `json:"author_name"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Outstanding     int64     `json:"outstanding"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type BooksQuery struct {
	Q         string // 模糊搜索：title/isbn
	AuthorID  string
	Available bool // only books with at least one copy on the shelf
}

func (r *Repo) ListBooks(ctx context.Context, q BooksQuery) ([]BookRow, error) {
	db := r.DB.WithContext(ctx)

	// 子查询：每本书当前未归还的借阅数
	sub := db.
		Table(models.BorrowRecordTable).
		Select("book_id, COUNT(*) AS n").
		Where("return_date IS NULL").
		Group("book_id")

	qry := db.
		Table(models.BookTable+" b").
		Select(`
			b.id, b.title, b.isbn, b.author_id, b.total_copies, b.available_copies,
			b.created_at, b.updated_at,
			a.name AS author_name,
			COALESCE(o.n, 0) AS outstanding
		`).
		Joins("LEFT JOIN (?) AS o ON o.book_id = b.id", sub).
		Joins("LEFT JOIN " + models.AuthorTable + " a ON a.id = b.author_id")

	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(b.title) LIKE ? OR LOWER(b.isbn) LIKE ?", pat, pat)
	}
	if q.AuthorID != "" {
		qry = qry.Where("b.author_id = ?", q.AuthorID)
	}
	if q.Available {
		qry = qry.Where("b.available_copies > 0")
	}

	var rows []BookRow
	if err := qry.Order("b.title ASC, b.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// BookDetails are the client-editable fields of a book. Copy counts are not
// here: they change only through the ledger.
type BookDetails struct {
	Title    *string
	ISBN     *string
	AuthorID *string
}

func (r *Repo) UpdateBookDetails(ctx context.Context, id string, in BookDetails) error {
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.ISBN != nil {
		updates["isbn"] = *in.ISBN
	}
	if in.AuthorID != nil {
		ok, err := r.authorExists(ctx, *in.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("author %s: %w", *in.AuthorID, ErrReference)
		}
		updates["author_id"] = *in.AuthorID
	}
	if len(updates) == 0 {
		_, err := r.FindBookByID(ctx, id)
		return err
	}
	res := r.DB.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBook removes the book and, as a documented side effect, every
// borrow record that references it (outstanding ones included).
func (r *Repo) DeleteBook(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *Repo) error {
		if _, err := tx.FindBookForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.DB.Where("book_id = ?", id).Delete(&models.BorrowRecord{}).Error; err != nil {
			return err
		}
		return tx.DB.Delete(&models.Book{ID: id}).Error
	})
}

// FindBookForUpdate reads a book and locks its row until the surrounding
// transaction ends. Call it inside Transaction.
func (r *Repo) FindBookForUpdate(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *Repo) UpdateAvailableCopies(ctx context.Context, id string, available int) error {
	return r.UpdateCopies(ctx, id, -1, available)
}

// UpdateCopies writes the copy counters. A negative total leaves
// total_copies untouched.
func (r *Repo) UpdateCopies(ctx context.Context, id string, total, available int) error {
	updates := map[string]any{
		"available_copies": available,
		"updated_at":       time.Now().UTC(),
	}
	if total >= 0 {
		updates["total_copies"] = total
	}
	res := r.DB.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

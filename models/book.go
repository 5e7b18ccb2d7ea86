package models

import "time"

const BookTable = "lib_books"

// Book is a catalog title. AvailableCopies is owned by the ledger's
// accountant and is never bound from client input.
type Book struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	ISBN            string    `gorm:"column:isbn;size:13;uniqueIndex;not null" json:"isbn"`
	AuthorID        string    `gorm:"type:uuid;index;not null" json:"author_id"`
	Author          *Author   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	TotalCopies     int       `gorm:"not null;default:0" json:"total_copies"`
	AvailableCopies int       `gorm:"not null;default:0" json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string { return BookTable }

package models

import "time"

const AuthorTable = "lib_authors"

type Author struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Bio       *string   `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Author) TableName() string { return AuthorTable }

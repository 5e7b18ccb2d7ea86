package models

import (
	"encoding/json"
	"time"
)

const BorrowRecordTable = "lib_borrow_records"

type RecordStatus string

const (
	StatusOutstanding RecordStatus = "OUTSTANDING"
	StatusReturned    RecordStatus = "RETURNED"
)

// BorrowRecord is one checkout of one copy. ReturnDate is set exactly once.
type BorrowRecord struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	BookID     string     `gorm:"type:uuid;index;not null" json:"book_id"`
	BorrowerID string     `gorm:"size:255;index;not null" json:"borrower_id"`
	BorrowDate time.Time  `gorm:"index;not null" json:"borrow_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (BorrowRecord) TableName() string { return BorrowRecordTable }

func (r BorrowRecord) Status() RecordStatus {
	if r.ReturnDate == nil {
		return StatusOutstanding
	}
	return StatusReturned
}

func (r BorrowRecord) Outstanding() bool { return r.ReturnDate == nil }

func (r BorrowRecord) MarshalJSON() ([]byte, error) {
	type alias BorrowRecord
	return json.Marshal(struct {
		alias
		Status RecordStatus `json:"status"`
	}{alias: alias(r), Status: r.Status()})
}

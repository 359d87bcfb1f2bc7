package models

import "time"

// Borrow is one loan of one book by one member. A nil ReturnDate means
// the loan is still active. Rows are closed, never deleted.
type Borrow struct {
	ID         uint       `gorm:"column:id;primaryKey"`
	MemberID   uint       `gorm:"column:member_id;not null;index"`
	BookID     uint       `gorm:"column:book_id;not null;index"`
	BorrowDate time.Time  `gorm:"column:borrow_date;not null"`
	ReturnDate *time.Time `gorm:"column:return_date"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Member *Member `gorm:"foreignKey:MemberID"`
	Book   *Book   `gorm:"foreignKey:BookID"`
}

// IsActive reports whether the loan is still open.
func (b *Borrow) IsActive() bool {
	return b.ReturnDate == nil
}

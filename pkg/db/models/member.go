package models

import (
	"time"

	"gorm.io/gorm"
)

// Member is a registered library patron. Code is assigned after insert
// once the numeric id is known (M001, M002, ...). A future
// PenaltyEndDate blocks new borrows.
type Member struct {
	ID             uint           `gorm:"column:id;primaryKey"`
	Code           *string        `gorm:"column:code;uniqueIndex"`
	Name           string         `gorm:"column:name;not null"`
	PenaltyEndDate *time.Time     `gorm:"column:penalty_end_date"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Borrows []Borrow `gorm:"foreignKey:MemberID"`
}

// IsPenalized reports whether the member is inside a penalty window at
// the given instant.
func (m *Member) IsPenalized(now time.Time) bool {
	return m.PenaltyEndDate != nil && m.PenaltyEndDate.After(now)
}

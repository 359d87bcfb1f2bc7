package models

import (
	"time"

	"gorm.io/gorm"
)

// Book is a catalogued title. Stock is the number of physical copies
// the library owns; availability is derived from the borrow ledger.
type Book struct {
	ID        uint           `gorm:"column:id;primaryKey"`
	Code      string         `gorm:"column:code;not null;uniqueIndex"`
	Title     string         `gorm:"column:title;not null"`
	Author    string         `gorm:"column:author;not null"`
	Stock     int            `gorm:"column:stock;not null;default:1"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Borrows []Borrow `gorm:"foreignKey:BookID"`
}

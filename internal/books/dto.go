package books

import (
	"time"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
)

// BookDTO represents the book payload returned to clients. AvailableStock
// excludes copies that are currently out on loan and goes negative when
// stock is edited below the number of open loans.
type BookDTO struct {
	ID             uint      `json:"id"`
	Code           string    `json:"code"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Stock          int       `json:"stock"`
	AvailableStock int       `json:"availableStock"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateBookInput captures the fields required to register a book.
type CreateBookInput struct {
	Code   string
	Title  string
	Author string
	Stock  int
}

// UpdateBookInput captures the mutable book fields. Nil means unchanged.
type UpdateBookInput struct {
	Title  *string
	Author *string
	Stock  *int
}

// ListParams configures pagination for the book catalog.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps returned books and the cursor for the next page.
type ListResult struct {
	Items  []BookDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

func toDTO(book *models.Book, activeBorrows int) BookDTO {
	return BookDTO{
		ID:             book.ID,
		Code:           book.Code,
		Title:          book.Title,
		Author:         book.Author,
		Stock:          book.Stock,
		AvailableStock: book.Stock - activeBorrows,
		CreatedAt:      book.CreatedAt,
		UpdatedAt:      book.UpdatedAt,
	}
}

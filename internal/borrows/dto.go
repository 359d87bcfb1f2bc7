package borrows

import (
	"time"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
)

// BorrowDTO represents a single loan.
type BorrowDTO struct {
	ID         uint       `json:"id"`
	MemberID   uint       `json:"memberId"`
	BookID     uint       `json:"bookId"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
}

// BorrowedBookDTO is a loan joined with its book for the member's
// borrowed-books listing. A nil ReturnDate marks an open loan.
type BorrowedBookDTO struct {
	BookID     uint       `json:"bookId"`
	Code       string     `json:"code"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	BorrowDate time.Time  `json:"borrowDate"`
	ReturnDate *time.Time `json:"returnDate,omitempty"`
}

// ReturnResult reports the outcome of a completed return.
type ReturnResult struct {
	Borrow         BorrowDTO  `json:"borrow"`
	Late           bool       `json:"late"`
	PenaltyEndDate *time.Time `json:"penaltyEndDate,omitempty"`
}

func toDTO(borrow *models.Borrow) BorrowDTO {
	return BorrowDTO{
		ID:         borrow.ID,
		MemberID:   borrow.MemberID,
		BookID:     borrow.BookID,
		BorrowDate: borrow.BorrowDate,
		ReturnDate: borrow.ReturnDate,
	}
}

func toBorrowedBookDTO(borrow *models.Borrow) BorrowedBookDTO {
	dto := BorrowedBookDTO{
		BookID:     borrow.BookID,
		BorrowDate: borrow.BorrowDate,
		ReturnDate: borrow.ReturnDate,
	}
	if borrow.Book != nil {
		dto.Code = borrow.Book.Code
		dto.Title = borrow.Book.Title
		dto.Author = borrow.Book.Author
	}
	return dto
}

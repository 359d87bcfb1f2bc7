package members

import (
	"time"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
)

// MemberDTO represents the member payload returned to clients. The raw
// borrow list stays internal; only the count is exposed.
type MemberDTO struct {
	ID                 uint       `json:"id"`
	Code               string     `json:"code"`
	Name               string     `json:"name"`
	PenaltyEndDate     *time.Time `json:"penaltyEndDate,omitempty"`
	BorrowedBooksCount int        `json:"borrowedBooksCount"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// CreateMemberInput captures the fields required to register a member.
type CreateMemberInput struct {
	Name string
}

// UpdateMemberInput captures the mutable member fields. Nil means unchanged.
type UpdateMemberInput struct {
	Name *string
}

// ListParams configures pagination for the member roster.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps returned members and the cursor for the next page.
type ListResult struct {
	Items  []MemberDTO `json:"items"`
	Cursor string      `json:"cursor"`
}

func toDTO(member *models.Member, borrowCount int) MemberDTO {
	code := ""
	if member.Code != nil {
		code = *member.Code
	}
	return MemberDTO{
		ID:                 member.ID,
		Code:               code,
		Name:               member.Name,
		PenaltyEndDate:     member.PenaltyEndDate,
		BorrowedBooksCount: borrowCount,
		CreatedAt:          member.CreatedAt,
		UpdatedAt:          member.UpdatedAt,
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/libraria-backend/api/responses"
	"github.com/angelmondragon/libraria-backend/api/validators"
	"github.com/angelmondragon/libraria-backend/internal/borrows"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/logger"
)

type borrowCreateRequest struct {
	BookID uint `json:"bookId" validate:"required,min=1"`
}

// BorrowedBooksList returns every loan of the member, open and closed,
// with book details.
func BorrowedBooksList(svc borrows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrow service unavailable"))
			return
		}

		memberID, err := validators.ParseIDParam(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListBorrowed(logg.WithMemberID(r.Context(), memberID), memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items, "")
	}
}

// BorrowCreate lends a book to the member.
func BorrowCreate(svc borrows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrow service unavailable"))
			return
		}

		memberID, err := validators.ParseIDParam(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload borrowCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithMemberID(r.Context(), memberID)
		ctx = logg.WithBookID(ctx, payload.BookID)

		borrow, err := svc.Borrow(ctx, memberID, payload.BookID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, borrow, "Book borrowed")
	}
}

// BorrowReturn closes the member's open loan for the book. Returning a
// book the member never borrowed is reported, not treated as an error.
func BorrowReturn(svc borrows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrow service unavailable"))
			return
		}

		memberID, err := validators.ParseIDParam(chi.URLParam(r, "memberId"), "memberId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookID, err := validators.ParseIDParam(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithMemberID(r.Context(), memberID)
		ctx = logg.WithBookID(ctx, bookID)

		result, err := svc.Return(ctx, memberID, bookID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result == nil {
			responses.WriteSuccess(w, nil, "This book was not borrowed by the member")
			return
		}

		message := "Book returned"
		if result.Late {
			message = "Book returned late, member penalized"
		}
		responses.WriteSuccess(w, result, message)
	}
}

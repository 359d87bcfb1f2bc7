package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/libraria-backend/api/responses"
	"github.com/angelmondragon/libraria-backend/api/validators"
	"github.com/angelmondragon/libraria-backend/internal/books"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/logger"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

type bookCreateRequest struct {
	Code   string `json:"code" validate:"required,min=1,max=64"`
	Title  string `json:"title" validate:"required,min=1,max=255"`
	Author string `json:"author" validate:"required,min=1,max=255"`
	Stock  int    `json:"stock" validate:"gte=0"`
}

func (r bookCreateRequest) toInput() books.CreateBookInput {
	return books.CreateBookInput{
		Code:   r.Code,
		Title:  r.Title,
		Author: r.Author,
		Stock:  r.Stock,
	}
}

type bookUpdateRequest struct {
	Title  *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Author *string `json:"author,omitempty" validate:"omitempty,min=1,max=255"`
	Stock  *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

func (r bookUpdateRequest) toInput() books.UpdateBookInput {
	return books.UpdateBookInput{
		Title:  r.Title,
		Author: r.Author,
		Stock:  r.Stock,
	}
}

// BookCreate registers a new book in the catalog.
func BookCreate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		var payload bookCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book, "Book created")
	}
}

// BookList returns the catalog with availability, newest first.
func BookList(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), books.ListParams{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result, "")
	}
}

// BookGet returns one book with its current availability.
func BookGet(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Get(logg.WithBookID(r.Context(), id), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book, "")
	}
}

// BookUpdate adjusts the mutable catalog fields.
func BookUpdate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bookUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Update(logg.WithBookID(r.Context(), id), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book, "Book updated")
	}
}

// BookDelete soft deletes a book. Its borrow history stays intact.
func BookDelete(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(logg.WithBookID(r.Context(), id), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil, "Book deleted")
	}
}

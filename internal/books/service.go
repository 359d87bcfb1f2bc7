package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/libraria-backend/pkg/db"
	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

// Service defines catalog operations for books.
type Service interface {
	Create(ctx context.Context, input CreateBookInput) (*BookDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uint) (*BookDTO, error)
	Update(ctx context.Context, id uint, input UpdateBookInput) (*BookDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

// NewService wires book catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "book repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book code required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	stock := input.Stock
	if stock == 0 {
		stock = 1
	}

	book := &models.Book{
		Code:   code,
		Title:  strings.TrimSpace(input.Title),
		Author: strings.TrimSpace(input.Author),
		Stock:  stock,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_books_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Book code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}

	dto := toDTO(book, 0)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listBooksParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}

	items := make([]BookDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toDTO(&rows[i].Book, rows[i].ActiveBorrows))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*BookDTO, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ActiveBorrowCount(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active borrows")
	}

	dto := toDTO(book, active)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateBookInput) (*BookDTO, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		book.Stock = *input.Stock
	}

	if err := s.repo.Save(ctx, book); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
	}

	active, err := s.repo.ActiveBorrowCount(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active borrows")
	}

	dto := toDTO(book, active)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Book not found")
	}
	return nil
}

func (s *service) findBook(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

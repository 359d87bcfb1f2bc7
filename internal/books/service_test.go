package books

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

type stubBookRepo struct {
	books         map[uint]*models.Book
	activeBorrows map[uint]int
	nextID        uint
	createErr     error
}

func newStubBookRepo() *stubBookRepo {
	return &stubBookRepo{
		books:         map[uint]*models.Book{},
		activeBorrows: map[uint]int{},
		nextID:        1,
	}
}

func (s *stubBookRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubBookRepo) Create(_ context.Context, book *models.Book) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.books {
		if existing.Code == book.Code {
			return errDuplicateCode
		}
	}
	book.ID = s.nextID
	s.nextID++
	book.CreatedAt = time.Now().UTC()
	book.UpdatedAt = book.CreatedAt
	s.books[book.ID] = book
	return nil
}

func (s *stubBookRepo) FindByID(_ context.Context, id uint) (*models.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *book
	return &copied, nil
}

func (s *stubBookRepo) List(_ context.Context, params listBooksParams) ([]bookRow, *pagination.Cursor, error) {
	rows := make([]bookRow, 0, len(s.books))
	for id, book := range s.books {
		rows = append(rows, bookRow{Book: *book, ActiveBorrows: s.activeBorrows[id]})
	}
	return rows, nil, nil
}

func (s *stubBookRepo) ActiveBorrowCount(_ context.Context, bookID uint) (int, error) {
	return s.activeBorrows[bookID], nil
}

func (s *stubBookRepo) Save(_ context.Context, book *models.Book) error {
	if _, ok := s.books[book.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.books[book.ID] = book
	return nil
}

func (s *stubBookRepo) SoftDelete(_ context.Context, id uint) (bool, error) {
	if _, ok := s.books[id]; !ok {
		return false, nil
	}
	delete(s.books, id)
	return true, nil
}

var errDuplicateCode = &duplicateErr{}

type duplicateErr struct{}

func (*duplicateErr) Error() string { return `duplicate key value violates unique constraint "idx_books_code"` }

func TestCreateBook(t *testing.T) {
	repo := newStubBookRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1})
	require.NoError(t, err)
	assert.Equal(t, "JK-45", dto.Code)
	assert.Equal(t, 1, dto.Stock)
	assert.Equal(t, 1, dto.AvailableStock)
}

func TestCreateBookDefaultsStock(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "SHR-1", Title: "A Study in Scarlet", Author: "Arthur Conan Doyle"})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Stock)
}

func TestCreateBookDuplicateCode(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), CreateBookInput{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateBookInput{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestGetBookSubtractsActiveBorrows(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "TW-11", Title: "Twilight", Author: "Stephenie Meyer", Stock: 2})
	require.NoError(t, err)
	repo.activeBorrows[dto.ID] = 1

	got, err := svc.Get(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.Equal(t, 1, got.AvailableStock)
}

func TestOverBorrowedBookReportsNegativeStock(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "TW-11", Title: "Twilight", Author: "Stephenie Meyer", Stock: 3})
	require.NoError(t, err)
	repo.activeBorrows[dto.ID] = 3

	stock := 1
	updated, err := svc.Update(context.Background(), dto.ID, UpdateBookInput{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Stock)
	assert.Equal(t, -2, updated.AvailableStock)

	result, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, -2, result.Items[0].AvailableStock)
}

func TestGetBookNotFound(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	_, err := svc.Get(context.Background(), 99)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Book not found", pkgerrors.As(err).Message())
}

func TestUpdateBook(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "HOB-83", Title: "The Hobit", Author: "J.R.R. Tolkien", Stock: 1})
	require.NoError(t, err)

	title := "The Hobbit, or There and Back Again"
	stock := 3
	updated, err := svc.Update(context.Background(), dto.ID, UpdateBookInput{Title: &title, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, "J.R.R. Tolkien", updated.Author)
}

func TestUpdateBookNegativeStock(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "NRN-7", Title: "Narnia", Author: "C.S. Lewis", Stock: 1})
	require.NoError(t, err)

	stock := -1
	_, err = svc.Update(context.Background(), dto.ID, UpdateBookInput{Stock: &stock})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteBookWhileBorrowed(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "SHR-1", Title: "A Study in Scarlet", Author: "Arthur Conan Doyle", Stock: 1})
	require.NoError(t, err)
	repo.activeBorrows[dto.ID] = 1

	require.NoError(t, svc.Delete(context.Background(), dto.ID))
}

func TestDeleteBook(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	dto, err := svc.Create(context.Background(), CreateBookInput{Code: "SHR-1", Title: "A Study in Scarlet", Author: "Arthur Conan Doyle", Stock: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), dto.ID))

	err = svc.Delete(context.Background(), dto.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListBooks(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	_, err := svc.Create(context.Background(), CreateBookInput{Code: "JK-45", Title: "Harry Potter", Author: "J.K Rowling", Stock: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateBookInput{Code: "TW-11", Title: "Twilight", Author: "Stephenie Meyer", Stock: 1})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Empty(t, result.Cursor)
}

func TestListBooksInvalidCursor(t *testing.T) {
	repo := newStubBookRepo()
	svc, _ := NewService(repo)

	_, err := svc.List(context.Background(), ListParams{Cursor: "not-base64!"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

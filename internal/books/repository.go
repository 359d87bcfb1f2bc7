package books

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the book catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, params listBooksParams) ([]bookRow, *pagination.Cursor, error)
	ActiveBorrowCount(ctx context.Context, bookID uint) (int, error)
	Save(ctx context.Context, book *models.Book) error
	SoftDelete(ctx context.Context, id uint) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a book repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listBooksParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type bookRow struct {
	models.Book
	ActiveBorrows int `gorm:"column:active_borrows"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listBooksParams) ([]bookRow, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Select("books.*, COUNT(borrows.id) AS active_borrows").
		Joins("LEFT JOIN borrows ON borrows.book_id = books.id AND borrows.return_date IS NULL").
		Group("books.id")
	if params.Cursor != nil {
		query = query.Where("(books.created_at, books.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []bookRow
	if err := query.Order("books.created_at DESC, books.id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) ActiveBorrowCount(ctx context.Context, bookID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repositoryImpl) Save(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

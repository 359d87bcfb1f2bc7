package borrows

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
)

// Repository exposes the persistence surface of the circulation
// workflow. Member and book lookups live here too, so the whole
// workflow can run against one transaction handle.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindMember(ctx context.Context, id uint) (*models.Member, error)
	FindBook(ctx context.Context, id uint) (*models.Book, error)
	CountActiveByMember(ctx context.Context, memberID uint) (int64, error)
	ActiveExistsForBook(ctx context.Context, bookID uint) (bool, error)
	FindActive(ctx context.Context, memberID, bookID uint) (*models.Borrow, error)
	ListByMember(ctx context.Context, memberID uint) ([]models.Borrow, error)
	Create(ctx context.Context, borrow *models.Borrow) error
	Save(ctx context.Context, borrow *models.Borrow) error
	SaveMember(ctx context.Context, member *models.Member) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a circulation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindMember(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repositoryImpl) FindBook(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repositoryImpl) CountActiveByMember(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("member_id = ? AND return_date IS NULL", memberID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) ActiveExistsForBook(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindActive returns (nil, nil) when the member has no open loan for
// the book.
func (r *repositoryImpl) FindActive(ctx context.Context, memberID, bookID uint) (*models.Borrow, error) {
	var borrow models.Borrow
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND book_id = ? AND return_date IS NULL", memberID, bookID).
		First(&borrow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &borrow, nil
}

// ListByMember returns every loan the member ever took, open or
// closed, oldest first.
func (r *repositoryImpl) ListByMember(ctx context.Context, memberID uint) ([]models.Borrow, error) {
	var rows []models.Borrow
	if err := r.db.WithContext(ctx).
		Preload("Book").
		Where("member_id = ?", memberID).
		Order("borrow_date ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Create(ctx context.Context, borrow *models.Borrow) error {
	return r.db.WithContext(ctx).Create(borrow).Error
}

func (r *repositoryImpl) Save(ctx context.Context, borrow *models.Borrow) error {
	return r.db.WithContext(ctx).Save(borrow).Error
}

func (r *repositoryImpl) SaveMember(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

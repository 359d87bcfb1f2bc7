package members

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the member roster.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uint) (*models.Member, error)
	List(ctx context.Context, params listMembersParams) ([]memberRow, *pagination.Cursor, error)
	BorrowCount(ctx context.Context, memberID uint) (int, error)
	Save(ctx context.Context, member *models.Member) error
	SoftDelete(ctx context.Context, id uint) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a member repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listMembersParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type memberRow struct {
	models.Member
	BorrowCount int `gorm:"column:borrow_count"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listMembersParams) ([]memberRow, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Select("members.*, COUNT(borrows.id) AS borrow_count").
		Joins("LEFT JOIN borrows ON borrows.member_id = members.id").
		Group("members.id")
	if params.Cursor != nil {
		query = query.Where("(members.created_at, members.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []memberRow
	if err := query.Order("members.created_at DESC, members.id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) BorrowCount(ctx context.Context, memberID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("member_id = ?", memberID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repositoryImpl) Save(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *repositoryImpl) SoftDelete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
	"github.com/angelmondragon/libraria-backend/pkg/pagination"
)

// Service defines roster operations for members.
type Service interface {
	Create(ctx context.Context, input CreateMemberInput) (*MemberDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uint) (*MemberDTO, error)
	Update(ctx context.Context, id uint, input UpdateMemberInput) (*MemberDTO, error)
	Delete(ctx context.Context, id uint) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires member roster dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "member repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Create inserts the member and assigns its public code from the
// generated id inside the same transaction.
func (s *service) Create(ctx context.Context, input CreateMemberInput) (*MemberDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name required")
	}

	member := &models.Member{Name: name}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, member); err != nil {
			return err
		}
		code := fmt.Sprintf("M%03d", member.ID)
		member.Code = &code
		return repo.Save(ctx, member)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}

	dto := toDTO(member, 0)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listMembersParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}

	items := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toDTO(&rows[i].Member, rows[i].BorrowCount))
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*MemberDTO, error) {
	member, err := s.findMember(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.BorrowCount(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count borrows")
	}

	dto := toDTO(member, count)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateMemberInput) (*MemberDTO, error) {
	member, err := s.findMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name required")
		}
		member.Name = name
	}

	if err := s.repo.Save(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}

	count, err := s.repo.BorrowCount(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count borrows")
	}

	dto := toDTO(member, count)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Member not found")
	}
	return nil
}

func (s *service) findMember(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

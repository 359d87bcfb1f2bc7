package borrows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/config"
	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
)

// Service defines the circulation workflow.
type Service interface {
	Borrow(ctx context.Context, memberID, bookID uint) (*BorrowDTO, error)
	Return(ctx context.Context, memberID, bookID uint) (*ReturnResult, error)
	ListBorrowed(ctx context.Context, memberID uint) ([]BorrowedBookDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo   Repository
	tx     txRunner
	policy config.CirculationConfig
	locks  *bookLocks
	now    func() time.Time
}

// NewService wires the circulation workflow dependencies.
func NewService(repo Repository, tx txRunner, policy config.CirculationConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "borrow repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if policy.MaxActiveLoans <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "max active loans must be positive")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		policy: policy,
		locks:  newBookLocks(),
		now:    time.Now,
	}, nil
}

// Borrow lends the book to the member. The whole check-then-insert runs
// under the book's lock and a single transaction.
func (s *service) Borrow(ctx context.Context, memberID, bookID uint) (*BorrowDTO, error) {
	release := s.locks.Acquire(bookID)
	defer release()

	now := s.now().UTC()
	var borrow *models.Borrow

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.FindMember(ctx, memberID)
		if err != nil {
			return notFoundOrDependency(err, "load member")
		}
		if _, err := repo.FindBook(ctx, bookID); err != nil {
			return notFoundOrDependency(err, "load book")
		}

		if member.IsPenalized(now) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Member is currently penalized")
		}

		active, err := repo.CountActiveByMember(ctx, memberID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count member loans")
		}
		if active >= int64(s.policy.MaxActiveLoans) {
			return pkgerrors.New(pkgerrors.CodeForbidden,
				fmt.Sprintf("Member cannot borrow more than %d books", s.policy.MaxActiveLoans))
		}

		taken, err := repo.ActiveExistsForBook(ctx, bookID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check book availability")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Book is already borrowed")
		}

		borrow = &models.Borrow{
			MemberID:   memberID,
			BookID:     bookID,
			BorrowDate: now,
		}
		return repo.Create(ctx, borrow)
	})
	if err != nil {
		return nil, asWorkflowError(err, "borrow book")
	}

	dto := toDTO(borrow)
	return &dto, nil
}

// Return closes the member's open loan for the book. A loan held past
// the loan period penalizes the member from now until now plus the
// penalty window. When the member has no open loan for the book the
// result is (nil, nil); that outcome mutates nothing.
func (s *service) Return(ctx context.Context, memberID, bookID uint) (*ReturnResult, error) {
	release := s.locks.Acquire(bookID)
	defer release()

	now := s.now().UTC()
	var result *ReturnResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		member, err := repo.FindMember(ctx, memberID)
		if err != nil {
			return notFoundOrDependency(err, "load member")
		}
		if _, err := repo.FindBook(ctx, bookID); err != nil {
			return notFoundOrDependency(err, "load book")
		}

		borrow, err := repo.FindActive(ctx, memberID, bookID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active loan")
		}
		if borrow == nil {
			return nil
		}

		borrow.ReturnDate = &now
		if err := repo.Save(ctx, borrow); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close loan")
		}

		result = &ReturnResult{Borrow: toDTO(borrow)}

		days := now.Sub(borrow.BorrowDate).Hours() / 24
		if days > float64(s.policy.LoanPeriodDays) {
			penaltyEnd := now.Add(s.policy.PenaltyDuration())
			member.PenaltyEndDate = &penaltyEnd
			if err := repo.SaveMember(ctx, member); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply penalty")
			}
			result.Late = true
			result.PenaltyEndDate = &penaltyEnd
		}
		return nil
	})
	if err != nil {
		return nil, asWorkflowError(err, "return book")
	}
	return result, nil
}

func (s *service) ListBorrowed(ctx context.Context, memberID uint) ([]BorrowedBookDTO, error) {
	if _, err := s.repo.FindMember(ctx, memberID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}

	rows, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loans")
	}

	items := make([]BorrowedBookDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toBorrowedBookDTO(&rows[i]))
	}
	return items, nil
}

func notFoundOrDependency(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Member or book not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func asWorkflowError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

package borrows

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/libraria-backend/pkg/config"
	"github.com/angelmondragon/libraria-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/libraria-backend/pkg/errors"
)

type stubBorrowRepo struct {
	mu      sync.Mutex
	members map[uint]*models.Member
	books   map[uint]*models.Book
	borrows map[uint]*models.Borrow
	nextID  uint
}

func newStubBorrowRepo() *stubBorrowRepo {
	return &stubBorrowRepo{
		members: map[uint]*models.Member{},
		books:   map[uint]*models.Book{},
		borrows: map[uint]*models.Borrow{},
		nextID:  1,
	}
}

func (s *stubBorrowRepo) addMember(id uint, penaltyEnd *time.Time) {
	code := "M001"
	s.members[id] = &models.Member{ID: id, Code: &code, Name: "Angga", PenaltyEndDate: penaltyEnd}
}

func (s *stubBorrowRepo) addBook(id uint, title string) {
	s.books[id] = &models.Book{ID: id, Code: title, Title: title, Author: "anon", Stock: 1}
}

func (s *stubBorrowRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubBorrowRepo) FindMember(_ context.Context, id uint) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *member
	return &copied, nil
}

func (s *stubBorrowRepo) FindBook(_ context.Context, id uint) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *book
	return &copied, nil
}

func (s *stubBorrowRepo) CountActiveByMember(_ context.Context, memberID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, b := range s.borrows {
		if b.MemberID == memberID && b.ReturnDate == nil {
			count++
		}
	}
	return count, nil
}

func (s *stubBorrowRepo) ActiveExistsForBook(_ context.Context, bookID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrows {
		if b.BookID == bookID && b.ReturnDate == nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubBorrowRepo) FindActive(_ context.Context, memberID, bookID uint) (*models.Borrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrows {
		if b.MemberID == memberID && b.BookID == bookID && b.ReturnDate == nil {
			copied := *b
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubBorrowRepo) ListByMember(_ context.Context, memberID uint) ([]models.Borrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []models.Borrow
	for _, b := range s.borrows {
		if b.MemberID == memberID {
			copied := *b
			copied.Book = s.books[b.BookID]
			rows = append(rows, copied)
		}
	}
	return rows, nil
}

func (s *stubBorrowRepo) Create(_ context.Context, borrow *models.Borrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	borrow.ID = s.nextID
	s.nextID++
	copied := *borrow
	s.borrows[borrow.ID] = &copied
	return nil
}

func (s *stubBorrowRepo) Save(_ context.Context, borrow *models.Borrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *borrow
	s.borrows[borrow.ID] = &copied
	return nil
}

func (s *stubBorrowRepo) SaveMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *member
	s.members[member.ID] = &copied
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func defaultPolicy() config.CirculationConfig {
	return config.CirculationConfig{MaxActiveLoans: 2, LoanPeriodDays: 7, PenaltyDays: 3}
}

func newBorrowService(t *testing.T) (*service, *stubBorrowRepo) {
	t.Helper()
	repo := newStubBorrowRepo()
	svc, err := NewService(repo, passthroughTx{}, defaultPolicy())
	require.NoError(t, err)
	return svc.(*service), repo
}

func TestBorrowBook(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	dto, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(1), dto.MemberID)
	assert.Equal(t, uint(10), dto.BookID)
	assert.Nil(t, dto.ReturnDate)
	assert.False(t, dto.BorrowDate.IsZero())
}

func TestBorrowUnknownMemberOrBook(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Borrow(context.Background(), 99, 10)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Member or book not found", pkgerrors.As(err).Message())

	_, err = svc.Borrow(context.Background(), 1, 99)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Member or book not found", pkgerrors.As(err).Message())
}

func TestBorrowLimitOfTwo(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")
	repo.addBook(11, "Twilight")
	repo.addBook(12, "The Hobbit")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), 1, 11)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), 1, 12)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, "Member cannot borrow more than 2 books", pkgerrors.As(err).Message())
}

func TestBorrowAlreadyBorrowedBook(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addMember(2, nil)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), 2, 10)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, "Book is already borrowed", pkgerrors.As(err).Message())
}

func TestBorrowWhilePenalized(t *testing.T) {
	svc, repo := newBorrowService(t)
	penaltyEnd := time.Now().UTC().Add(48 * time.Hour)
	repo.addMember(1, &penaltyEnd)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, "Member is currently penalized", pkgerrors.As(err).Message())
}

func TestBorrowAfterPenaltyExpires(t *testing.T) {
	svc, repo := newBorrowService(t)
	penaltyEnd := time.Now().UTC().Add(-time.Hour)
	repo.addMember(1, &penaltyEnd)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
}

func TestReturnOnTime(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(6 * 24 * time.Hour) }
	result, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Late)
	assert.Nil(t, result.PenaltyEndDate)
	assert.NotNil(t, result.Borrow.ReturnDate)
	assert.Nil(t, repo.members[1].PenaltyEndDate)
}

func TestReturnExactlyAtLoanPeriodIsOnTime(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(7 * 24 * time.Hour) }
	result, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.False(t, result.Late)
}

func TestReturnLateAppliesPenalty(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	returnedAt := start.Add(7*24*time.Hour + time.Hour)
	svc.now = func() time.Time { return returnedAt }
	result, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.True(t, result.Late)
	require.NotNil(t, result.PenaltyEndDate)
	assert.Equal(t, returnedAt.Add(3*24*time.Hour), *result.PenaltyEndDate)

	member := repo.members[1]
	require.NotNil(t, member.PenaltyEndDate)
	assert.Equal(t, returnedAt.Add(3*24*time.Hour), *member.PenaltyEndDate)
}

func TestReturnLateThenBorrowBlockedUntilPenaltyEnds(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")
	repo.addBook(11, "Twilight")

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)

	returnedAt := start.Add(9 * 24 * time.Hour)
	svc.now = func() time.Time { return returnedAt }
	_, err = svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)

	svc.now = func() time.Time { return returnedAt.Add(24 * time.Hour) }
	_, err = svc.Borrow(context.Background(), 1, 11)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	svc.now = func() time.Time { return returnedAt.Add(3*24*time.Hour + time.Minute) }
	_, err = svc.Borrow(context.Background(), 1, 11)
	require.NoError(t, err)
}

func TestReturnBookNotBorrowed(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	result, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, repo.borrows)
}

func TestReturnUnknownMemberOrBook(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Return(context.Background(), 99, 10)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Return(context.Background(), 1, 99)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestReturnedBookCanBeBorrowedAgain(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addMember(2, nil)
	repo.addBook(10, "Harry Potter")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.Borrow(context.Background(), 2, 10)
	require.NoError(t, err)
}

func TestListBorrowedIncludesHistory(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addBook(10, "Harry Potter")
	repo.addBook(11, "Twilight")

	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), 1, 11)
	require.NoError(t, err)
	_, err = svc.Return(context.Background(), 1, 11)
	require.NoError(t, err)

	items, err := svc.ListBorrowed(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byBook := map[uint]BorrowedBookDTO{}
	for _, item := range items {
		byBook[item.BookID] = item
	}
	assert.Equal(t, "Harry Potter", byBook[10].Title)
	assert.Nil(t, byBook[10].ReturnDate)
	assert.Equal(t, "Twilight", byBook[11].Title)
	assert.NotNil(t, byBook[11].ReturnDate)
}

func TestListBorrowedUnknownMember(t *testing.T) {
	svc, _ := newBorrowService(t)

	_, err := svc.ListBorrowed(context.Background(), 5)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, "Member not found", pkgerrors.As(err).Message())
}

func TestConcurrentBorrowSingleWinner(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addBook(10, "Harry Potter")
	for id := uint(1); id <= 8; id++ {
		repo.addMember(id, nil)
	}

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for id := uint(1); id <= 8; id++ {
		wg.Add(1)
		go func(memberID uint) {
			defer wg.Done()
			_, err := svc.Borrow(context.Background(), memberID, 10)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	}
	assert.Equal(t, 1, succeeded)
}

// Full circulation walkthrough: two members compete for a small
// catalog, late returns penalize, and the penalty eventually clears.
func TestCirculationScenario(t *testing.T) {
	svc, repo := newBorrowService(t)
	repo.addMember(1, nil)
	repo.addMember(2, nil)
	repo.addBook(10, "Harry Potter")
	repo.addBook(11, "Twilight")
	repo.addBook(12, "The Hobbit")

	day := func(d int) time.Time {
		return time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(d) * 24 * time.Hour)
	}

	// day 0: member 1 takes two books, hits the loan cap
	svc.now = func() time.Time { return day(0) }
	_, err := svc.Borrow(context.Background(), 1, 10)
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), 1, 11)
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), 1, 12)
	assert.Equal(t, "Member cannot borrow more than 2 books", pkgerrors.As(err).Message())

	// member 2 cannot take a book member 1 holds
	_, err = svc.Borrow(context.Background(), 2, 10)
	assert.Equal(t, "Book is already borrowed", pkgerrors.As(err).Message())

	// day 5: on-time return frees the book for member 2
	svc.now = func() time.Time { return day(5) }
	result, err := svc.Return(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.False(t, result.Late)
	_, err = svc.Borrow(context.Background(), 2, 10)
	require.NoError(t, err)

	// day 9: the second book comes back late, penalizing member 1
	svc.now = func() time.Time { return day(9) }
	result, err = svc.Return(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.True(t, result.Late)

	_, err = svc.Borrow(context.Background(), 1, 12)
	assert.Equal(t, "Member is currently penalized", pkgerrors.As(err).Message())

	// day 13: penalty has lapsed
	svc.now = func() time.Time { return day(13) }
	_, err = svc.Borrow(context.Background(), 1, 12)
	require.NoError(t, err)

	items, err := svc.ListBorrowed(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 3)
	open := 0
	for _, item := range items {
		if item.ReturnDate == nil {
			open++
			assert.Equal(t, "The Hobbit", item.Title)
		}
	}
	assert.Equal(t, 1, open)
}

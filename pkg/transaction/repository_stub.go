package transaction

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
)

var ErrStubFailure = errors.New("store unavailable")

// RepositoryStub is an in-memory Repository. Failing operations can be switched on to exercise rollback paths.
type RepositoryStub struct {
	mu     sync.Mutex
	nextId int
	data   map[int][]Transaction

	FailCreate bool
	FailUpdate bool
	FailDelete bool
	FailList   bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[int][]Transaction{}}
}

func (s *RepositoryStub) Create(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate {
		return Transaction{}, ErrStubFailure
	}
	s.nextId++
	t.Id = "tx-" + strconv.Itoa(s.nextId)
	s.data[userId] = append(s.data[userId], t)
	return t, nil
}

func (s *RepositoryStub) CreateMaterialized(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	for _, existing := range s.data[userId] {
		if existing.RecurringRuleId == t.RecurringRuleId && existing.OccurrenceDate != nil && t.OccurrenceDate != nil &&
			existing.OccurrenceDate.Equal(*t.OccurrenceDate) {
			s.mu.Unlock()
			return Transaction{}, ErrAlreadyMaterialized
		}
	}
	s.mu.Unlock()
	return s.Create(ctx, userId, t)
}

func (s *RepositoryStub) Get(ctx context.Context, userId int, id string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.data[userId] {
		if t.Id == id {
			return t, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (s *RepositoryStub) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate {
		return Transaction{}, ErrStubFailure
	}
	for i, existing := range s.data[userId] {
		if existing.Id == t.Id {
			t.RecurringRuleId = existing.RecurringRuleId
			t.OccurrenceDate = existing.OccurrenceDate
			s.data[userId][i] = t
			return t, nil
		}
	}
	return Transaction{}, ErrTransactionNotFound
}

func (s *RepositoryStub) Delete(ctx context.Context, userId int, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete {
		return ErrStubFailure
	}
	for i, existing := range s.data[userId] {
		if existing.Id == id {
			s.data[userId] = slices.Delete(s.data[userId], i, i+1)
			return nil
		}
	}
	return ErrTransactionNotFound
}

func (s *RepositoryStub) List(ctx context.Context, userId int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList {
		return nil, ErrStubFailure
	}
	transactions := slices.Clone(s.data[userId])
	slices.SortStableFunc(transactions, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	if transactions == nil {
		transactions = []Transaction{}
	}
	return transactions, nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId = 0
	s.data = map[int][]Transaction{}
	s.FailCreate = false
	s.FailUpdate = false
	s.FailDelete = false
	s.FailList = false
}

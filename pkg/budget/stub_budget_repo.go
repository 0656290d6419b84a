package budget

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrStubFailure = errors.New("slot store unavailable")

type StubBudgetRepo struct {
	mu   sync.Mutex
	data map[string]decimal.Decimal

	FailGet bool
	FailSet bool
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{data: map[string]decimal.Decimal{}}
}

func (s *StubBudgetRepo) Get(ctx context.Context, uid string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailGet {
		return decimal.Zero, ErrStubFailure
	}
	return s.data[uid], nil
}

func (s *StubBudgetRepo) Set(ctx context.Context, uid string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSet {
		return ErrStubFailure
	}
	s.data[uid] = amount
	return nil
}

func (s *StubBudgetRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]decimal.Decimal{}
	s.FailGet = false
	s.FailSet = false
}

package recurring

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"
)

var ErrStubFailure = errors.New("rule store unavailable")

// RepositoryStub is an in-memory Repository for tests.
type RepositoryStub struct {
	mu     sync.Mutex
	nextId int
	data   map[int][]Rule

	FailCreate bool
	FailUpdate bool
	FailList   bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{data: map[int][]Rule{}}
}

func (s *RepositoryStub) Create(ctx context.Context, userId int, rule Rule) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate {
		return Rule{}, ErrStubFailure
	}
	s.nextId++
	rule.Id = "rule-" + strconv.Itoa(s.nextId)
	s.data[userId] = append(s.data[userId], rule)
	return rule, nil
}

func (s *RepositoryStub) List(ctx context.Context, userId int) ([]Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList {
		return nil, ErrStubFailure
	}
	rules := slices.Clone(s.data[userId])
	slices.SortStableFunc(rules, func(a, b Rule) int { return a.NextDueDate.Compare(b.NextDueDate) })
	return rules, nil
}

func (s *RepositoryStub) UpdateNextDueDate(ctx context.Context, userId int, ruleId string, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate {
		return ErrStubFailure
	}
	for i, rule := range s.data[userId] {
		if rule.Id == ruleId {
			s.data[userId][i].NextDueDate = next
			return nil
		}
	}
	return ErrRuleNotFound
}

func (s *RepositoryStub) Delete(ctx context.Context, userId int, ruleId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.data[userId])
	s.data[userId] = slices.DeleteFunc(s.data[userId], func(rule Rule) bool { return rule.Id == ruleId })
	if len(s.data[userId]) == before {
		return ErrRuleNotFound
	}
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[int][]Rule{}
	s.nextId = 0
	s.FailCreate = false
	s.FailUpdate = false
	s.FailList = false
}

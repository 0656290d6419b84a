package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrNegativeBudget = errors.New("budget must not be negative")

type BudgetService interface {
	Get(ctx context.Context) (decimal.Decimal, error)
	Set(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}

type BudgetServiceImpl struct {
	repo     BudgetRepo
	eventBus *event_bus.EventBus
}

func NewBudgetServiceImpl(repo BudgetRepo, eventBus *event_bus.EventBus) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *BudgetServiceImpl) Get(ctx context.Context) (decimal.Decimal, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, currentUser.Uid)
}

func (s *BudgetServiceImpl) Set(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get current user: %w", err)
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeBudget
	}
	if err := s.repo.Set(ctx, currentUser.Uid, amount); err != nil {
		return decimal.Zero, err
	}

	if s.eventBus != nil {
		err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.BudgetUpdated, event_bus.BudgetUpdatedData{
			UserId: currentUser.Id,
			Amount: amount,
		}))
		if err != nil {
			log.Warnf("failed to publish %s event: %v", event_bus.BudgetUpdated, err)
		}
	}
	return amount, nil
}

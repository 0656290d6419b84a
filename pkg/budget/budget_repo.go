package budget

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/localstore"
	log "github.com/sirupsen/logrus"
)

// BudgetRepo keeps the monthly budget in the per-user local slot store, keyed by the user's uid.
type BudgetRepo interface {
	// Get returns the stored budget, zero when nothing or an unreadable value is stored.
	Get(ctx context.Context, uid string) (decimal.Decimal, error)
	Set(ctx context.Context, uid string, amount decimal.Decimal) error
}

type BudgetRepoImpl struct {
	store *localstore.Store
}

func NewBudgetRepo(store *localstore.Store) *BudgetRepoImpl {
	return &BudgetRepoImpl{store: store}
}

func slotKey(uid string) string {
	return "monthlyBudget_" + uid
}

func (r *BudgetRepoImpl) Get(ctx context.Context, uid string) (decimal.Decimal, error) {
	value, found, err := r.store.Get(ctx, slotKey(uid))
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not read budget: %w", err)
	}
	if !found {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		log.Warnf("stored budget %q of user %s is not a number, using 0", value, uid)
		return decimal.Zero, nil
	}
	return amount, nil
}

func (r *BudgetRepoImpl) Set(ctx context.Context, uid string, amount decimal.Decimal) error {
	if err := r.store.Set(ctx, slotKey(uid), amount.String()); err != nil {
		return fmt.Errorf("could not store budget: %w", err)
	}
	return nil
}

package budget

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/internal/test_utils"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 4, Uid: "uid-4"})

var budgetRepoStub = NewStubBudgetRepo()

func setup(t *testing.T) (*BudgetServiceImpl, *[]event_bus.BudgetUpdatedData, func()) {
	var events []event_bus.BudgetUpdatedData
	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped(bus, event_bus.BudgetUpdated, func(e event_bus.EventT[event_bus.BudgetUpdatedData]) error {
		events = append(events, e.Data)
		return nil
	})
	return NewBudgetServiceImpl(budgetRepoStub, bus), &events, func() {
		budgetRepoStub.Cleanup()
	}
}

func TestBudgetServiceImpl(t *testing.T) {
	t.Run("should read zero before a budget is set", func(t *testing.T) {
		service, _, teardown := setup(t)
		defer teardown()

		amount, err := service.Get(ctx)

		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})

	t.Run("should store the budget and publish the change", func(t *testing.T) {
		service, events, teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Set(ctx, d(1000))

		// then
		require.NoError(t, err)
		amount, _ := service.Get(ctx)
		assert.True(t, d(1000).Equal(amount))
		require.Len(t, *events, 1)
		assert.Equal(t, 4, (*events)[0].UserId)
	})

	t.Run("should reject a negative budget", func(t *testing.T) {
		service, events, teardown := setup(t)
		defer teardown()

		_, err := service.Set(ctx, d(-1))

		assert.ErrorIs(t, err, ErrNegativeBudget)
		assert.Empty(t, *events)
	})

	t.Run("should not publish when the store fails", func(t *testing.T) {
		service, events, teardown := setup(t)
		defer teardown()
		budgetRepoStub.FailSet = true

		_, err := service.Set(ctx, d(10))

		assert.ErrorIs(t, err, ErrStubFailure)
		assert.Empty(t, *events)
	})
}

func TestBudgetRepoImpl(t *testing.T) {
	t.Run("should keep budgets per uid in the slot store", func(t *testing.T) {
		// given
		store := test_utils.NewLocalStore(t)
		repo := NewBudgetRepo(store)

		// when
		require.NoError(t, repo.Set(context.Background(), "alice", decimal.RequireFromString("1250.50")))

		// then
		alice, err := repo.Get(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "1250.5", alice.String())
		bob, err := repo.Get(context.Background(), "bob")
		require.NoError(t, err)
		assert.True(t, bob.IsZero())
		raw, found, err := store.Get(context.Background(), "monthlyBudget_alice")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "1250.5", raw)
	})

	t.Run("should read an unparsable slot as zero", func(t *testing.T) {
		// given
		store := test_utils.NewLocalStore(t)
		require.NoError(t, store.Set(context.Background(), "monthlyBudget_alice", "lots"))

		// when
		amount, err := NewBudgetRepo(store).Get(context.Background(), "alice")

		// then
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})
}

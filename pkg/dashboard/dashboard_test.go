package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/budget"
	"github.com/spendlog/spendlog/pkg/notification"
	"github.com/spendlog/spendlog/pkg/recurring"
	"github.com/spendlog/spendlog/pkg/stats"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var currentUser = user.User{Id: 5, Uid: "uid-5", Settings: user.Settings{Timezone: "UTC"}}
var ctx = user.WithUser(context.Background(), currentUser)

var today = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

type fixture struct {
	rules        *recurring.RepositoryStub
	transactions *transaction.RepositoryStub
	budgets      *budget.StubBudgetRepo
	sink         *notification.StubSink
	bus          *event_bus.EventBus
	txService    *transaction.ServiceImpl
	budget       *budget.BudgetServiceImpl
	service      *ServiceImpl
}

func setup(t *testing.T, rules recurring.Repository) *fixture {
	t.Helper()
	f := &fixture{
		rules:        recurring.NewRepositoryStub(),
		transactions: transaction.NewRepositoryStub(),
		budgets:      budget.NewStubBudgetRepo(),
		sink:         notification.NewStubSink(notification.PermissionGranted),
		bus:          event_bus.NewEventBus(),
	}
	if rules == nil {
		rules = f.rules
	}
	clock := &utils.MockClock{FixedNow: today}
	processor := recurring.NewProcessor(rules, f.transactions, f.bus, clock)
	f.txService = transaction.NewService(f.transactions, transaction.NewLedger(f.transactions), nil, f.bus)
	f.budget = budget.NewBudgetServiceImpl(f.budgets, f.bus)
	f.service = NewService(recurring.NewService(rules, processor), f.txService, f.budget, notification.NewMonitor(f.sink, clock), clock)
	return f
}

func (f *fixture) addRule(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.rules.Create(context.Background(), currentUser.Id, recurring.Rule{
		Type:        transaction.Expense,
		Amount:      decimal.NewFromInt(amount),
		Note:        "Rent",
		Category:    "Bills",
		Frequency:   recurring.Monthly,
		NextDueDate: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

type failingUpdateRepo struct {
	*recurring.RepositoryStub
}

func (r *failingUpdateRepo) UpdateNextDueDate(ctx context.Context, userId int, ruleId string, next time.Time) error {
	return errors.New("rule store timeout")
}

func TestServiceImpl_Load(t *testing.T) {
	t.Run("should evaluate the budget after the due rules were materialized", func(t *testing.T) {
		// given
		f := setup(t, nil)
		f.addRule(t, 900)
		require.NoError(t, f.budgets.Set(context.Background(), currentUser.Uid, decimal.NewFromInt(1000)))

		// when
		dashboard, err := f.service.Load(ctx, stats.FilterMonth)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, dashboard.Materialized)
		assert.Len(t, dashboard.Stats.Transactions, 1)
		assert.Equal(t, "90", dashboard.Budget.Percent.String())
		assert.True(t, dashboard.Budget.Defined)
		assert.Empty(t, dashboard.Warnings)
		assert.Equal(t, []string{notification.BudgetAlertTitle}, f.sink.Titles())
	})

	t.Run("should not materialize twice on a second load", func(t *testing.T) {
		// given
		f := setup(t, nil)
		f.addRule(t, 100)
		_, err := f.service.Load(ctx, stats.FilterAll)
		require.NoError(t, err)

		// when
		dashboard, err := f.service.Load(ctx, stats.FilterAll)

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, dashboard.Materialized)
		assert.Len(t, dashboard.Stats.Transactions, 1)
	})

	t.Run("should warn about a rule whose due date was not saved", func(t *testing.T) {
		// given
		failing := &failingUpdateRepo{RepositoryStub: recurring.NewRepositoryStub()}
		f := setup(t, failing)
		f.rules = failing.RepositoryStub
		f.addRule(t, 100)

		// when
		dashboard, err := f.service.Load(ctx, stats.FilterAll)

		// then
		require.NoError(t, err)
		require.Len(t, dashboard.Warnings, 1)
		assert.Contains(t, dashboard.Warnings[0], "rule-1")
		assert.Len(t, dashboard.Stats.Transactions, 1)
	})

	t.Run("should still load when the rules cannot be read", func(t *testing.T) {
		// given
		f := setup(t, nil)
		f.rules.FailList = true

		// when
		dashboard, err := f.service.Load(ctx, stats.FilterAll)

		// then
		require.NoError(t, err)
		assert.Len(t, dashboard.Warnings, 1)
	})

	t.Run("should fall back to no budget when the slot cannot be read", func(t *testing.T) {
		// given
		f := setup(t, nil)
		f.budgets.FailGet = true

		// when
		dashboard, err := f.service.Load(ctx, stats.FilterAll)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"Monthly budget could not be read"}, dashboard.Warnings)
		assert.False(t, dashboard.Budget.Defined)
	})

	t.Run("should fail when the transactions cannot be loaded", func(t *testing.T) {
		// given
		f := setup(t, nil)
		f.transactions.FailList = true

		// when
		_, err := f.service.Load(ctx, stats.FilterAll)

		// then
		assert.ErrorIs(t, err, transaction.ErrStubFailure)
	})

	t.Run("should require a user", func(t *testing.T) {
		f := setup(t, nil)

		_, err := f.service.Load(context.Background(), stats.FilterAll)

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_Subscribe(t *testing.T) {
	t.Run("should alert when the budget is lowered below spending", func(t *testing.T) {
		// given
		f := setup(t, nil)
		unsubscribe := f.service.Subscribe(f.bus)
		t.Cleanup(unsubscribe)
		amount := decimal.NewFromInt(850)
		date := today
		_, err := f.txService.Add(ctx, transaction.Draft{Type: transaction.Expense, Amount: &amount, Note: "Laptop", Date: &date})
		require.NoError(t, err)
		require.Empty(t, f.sink.Sent)

		// when
		_, err = f.budget.Set(ctx, decimal.NewFromInt(1000))

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{notification.BudgetAlertTitle}, f.sink.Titles())
	})

	t.Run("should stop after unsubscribe", func(t *testing.T) {
		// given
		f := setup(t, nil)
		unsubscribe := f.service.Subscribe(f.bus)
		amount := decimal.NewFromInt(850)
		date := today
		_, err := f.txService.Add(ctx, transaction.Draft{Type: transaction.Expense, Amount: &amount, Note: "Laptop", Date: &date})
		require.NoError(t, err)

		// when
		unsubscribe()
		_, err = f.budget.Set(ctx, decimal.NewFromInt(1000))

		// then
		require.NoError(t, err)
		assert.Empty(t, f.sink.Sent)
	})
}

func TestHandler_Get(t *testing.T) {
	f := setup(t, nil)
	f.addRule(t, 100)
	handler := NewHandler(f.service)

	t.Run("should return the dashboard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard?filter=month", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"materialized":1`)
		assert.Contains(t, w.Body.String(), `"warnings":[]`)
	})

	t.Run("should reject an unknown filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard?filter=week", nil).WithContext(ctx)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should answer forbidden without a user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		w := httptest.NewRecorder()

		handler.Get(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

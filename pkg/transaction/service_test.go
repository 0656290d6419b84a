package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 1, Uid: "uid-1", Username: "asha"})

var repoStub = NewRepositoryStub()

type registrarStub struct {
	calls []Recurrence
	err   error
}

func (r *registrarStub) RegisterRule(ctx context.Context, source Transaction, recurrence Recurrence) error {
	r.calls = append(r.calls, recurrence)
	return r.err
}

var (
	service   *ServiceImpl
	registrar *registrarStub
	events    []event_bus.TransactionsChangedData
)

func setup(t *testing.T) func() {
	registrar = &registrarStub{}
	events = nil
	bus := event_bus.NewEventBus()
	event_bus.SubscribeTyped(bus, event_bus.TransactionsChanged, func(e event_bus.EventT[event_bus.TransactionsChangedData]) error {
		events = append(events, e.Data)
		return nil
	})
	service = NewService(repoStub, NewLedger(repoStub), registrar, bus)
	return func() {
		repoStub.Cleanup()
	}
}

func validDraft(note string) Draft {
	return Draft{Type: Expense, Amount: amount("120.50"), Note: note, Date: at(2024, 1, 5)}
}

func TestServiceImpl_Add(t *testing.T) {
	t.Run("should add and publish a change", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.Add(ctx, validDraft("Groceries"))

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.Id)
		listed, err := service.List(ctx)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
		require.Len(t, events, 1)
		assert.Equal(t, event_bus.ChangeAdded, events[0].Kind)
		assert.Empty(t, registrar.calls)
	})

	t.Run("should reject invalid input before writing", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Add(ctx, Draft{Note: "no amount", Date: at(2024, 1, 5)})

		// then
		assert.ErrorIs(t, err, ErrAmountRequired)
		stored, _ := repoStub.List(ctx, 1)
		assert.Empty(t, stored)
		assert.Empty(t, events)
	})

	t.Run("should register a recurring rule when requested", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		draft := validDraft("Rent")
		draft.Recurrence = &Recurrence{Frequency: "Monthly"}

		// when
		_, err := service.Add(ctx, draft)

		// then
		require.NoError(t, err)
		require.Len(t, registrar.calls, 1)
		assert.Equal(t, "Monthly", registrar.calls[0].Frequency)
	})

	t.Run("should keep the transaction when the rule fails", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		registrar.err = errors.New("rules store down")
		draft := validDraft("Rent")
		draft.Recurrence = &Recurrence{Frequency: "Weekly"}

		// when
		created, err := service.Add(ctx, draft)

		// then
		assert.ErrorIs(t, err, ErrRecurringRuleNotSaved)
		assert.NotEmpty(t, created.Id)
		stored, _ := repoStub.List(ctx, 1)
		assert.Len(t, stored, 1)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Add(context.Background(), validDraft("x"))

		assert.ErrorContains(t, err, "failed to get current user")
	})
}

func TestServiceImpl_EditAndDelete(t *testing.T) {
	t.Run("should edit an existing transaction", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.Add(ctx, validDraft("Groceries"))
		require.NoError(t, err)
		draft := validDraft("Groceries and fruit")

		// when
		updated, err := service.Edit(ctx, created.Id, draft)

		// then
		require.NoError(t, err)
		assert.Equal(t, "Groceries and fruit", updated.Note)
		stored, _ := repoStub.Get(ctx, 1, created.Id)
		assert.Equal(t, "Groceries and fruit", stored.Note)
	})

	t.Run("should report not found on edit of unknown id", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Edit(ctx, "missing", validDraft("x"))

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("should restore the list when delete fails", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		first, _ := service.Add(ctx, validDraft("One"))
		_, _ = service.Add(ctx, validDraft("Two"))
		repoStub.FailDelete = true

		// when
		err := service.Delete(ctx, first.Id)

		// then
		assert.Error(t, err)
		listed, _ := service.List(ctx)
		assert.Len(t, listed, 2)
	})
}

func TestServiceImpl_Load(t *testing.T) {
	t.Run("should surface store errors", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		repoStub.FailList = true

		_, err := service.Load(ctx)

		assert.ErrorIs(t, err, ErrStubFailure)
	})
}

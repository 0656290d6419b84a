package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

// ErrRecurringRuleNotSaved is returned by Add when the transaction was stored but its recurring rule was not.
var ErrRecurringRuleNotSaved = errors.New("transaction saved but its recurring rule could not be created")

// RuleRegistrar creates the recurring rule requested together with a new transaction.
type RuleRegistrar interface {
	RegisterRule(ctx context.Context, source Transaction, recurrence Recurrence) error
}

type Service interface {
	// Load fetches the full list from the store and replaces the user's ledger with it.
	Load(ctx context.Context) ([]Transaction, error)
	// List returns the ledger, loading it first when the user has none yet.
	List(ctx context.Context) ([]Transaction, error)
	Get(ctx context.Context, id string) (Transaction, error)
	Add(ctx context.Context, draft Draft) (Transaction, error)
	Edit(ctx context.Context, id string, draft Draft) (Transaction, error)
	Delete(ctx context.Context, id string) error
}

type ServiceImpl struct {
	repo     Repository
	ledger   *Ledger
	rules    RuleRegistrar
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, ledger *Ledger, rules RuleRegistrar, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, ledger: ledger, rules: rules, eventBus: eventBus}
}

func (s *ServiceImpl) Load(ctx context.Context) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	transactions, err := s.repo.List(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	s.ledger.Replace(userId, transactions)
	return transactions, nil
}

func (s *ServiceImpl) List(ctx context.Context) ([]Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if transactions, ok := s.ledger.Snapshot(userId); ok {
		return transactions, nil
	}
	return s.Load(ctx)
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) Add(ctx context.Context, draft Draft) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	t, err := draft.Validate()
	if err != nil {
		return Transaction{}, err
	}
	if err := s.ensureLoaded(ctx, userId); err != nil {
		return Transaction{}, err
	}

	created, err := s.ledger.Add(ctx, userId, t)
	if err != nil {
		return Transaction{}, err
	}
	s.publish(ctx, userId, event_bus.ChangeAdded, created.Id)

	if draft.Recurrence != nil && s.rules != nil {
		if err := s.rules.RegisterRule(ctx, created, *draft.Recurrence); err != nil {
			log.Errorf("recurring rule for transaction %s not created: %v", created.Id, err)
			return created, fmt.Errorf("%w: %w", ErrRecurringRuleNotSaved, err)
		}
	}
	return created, nil
}

func (s *ServiceImpl) Edit(ctx context.Context, id string, draft Draft) (Transaction, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get current user: %w", err)
	}
	t, err := draft.Validate()
	if err != nil {
		return Transaction{}, err
	}
	if err := s.ensureLoaded(ctx, userId); err != nil {
		return Transaction{}, err
	}
	t.Id = id

	updated, err := s.ledger.Edit(ctx, userId, t)
	if err != nil {
		return Transaction{}, err
	}
	s.publish(ctx, userId, event_bus.ChangeEdited, updated.Id)
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if err := s.ensureLoaded(ctx, userId); err != nil {
		return err
	}
	if err := s.ledger.Delete(ctx, userId, id); err != nil {
		return err
	}
	s.publish(ctx, userId, event_bus.ChangeDeleted, id)
	return nil
}

func (s *ServiceImpl) ensureLoaded(ctx context.Context, userId int) error {
	if _, ok := s.ledger.Snapshot(userId); ok {
		return nil
	}
	transactions, err := s.repo.List(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	s.ledger.Replace(userId, transactions)
	return nil
}

func (s *ServiceImpl) publish(ctx context.Context, userId int, kind event_bus.ChangeKind, id string) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionsChanged, event_bus.TransactionsChangedData{
		UserId:        userId,
		Kind:          kind,
		TransactionId: id,
	}))
	if err != nil {
		log.Warnf("failed to publish %s event: %v", event_bus.TransactionsChanged, err)
	}
}

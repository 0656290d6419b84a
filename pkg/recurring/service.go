package recurring

import (
	"context"
	"errors"
	"fmt"

	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
)

var ErrDueDateBeforeTransaction = errors.New("next due date must not be before the transaction date")

type Service interface {
	ListRules(ctx context.Context) ([]Rule, error)
	// RegisterRule creates a rule that repeats source. It satisfies transaction.RuleRegistrar.
	RegisterRule(ctx context.Context, source transaction.Transaction, recurrence transaction.Recurrence) error
	DeleteRule(ctx context.Context, ruleId string) error
	ProcessDue(ctx context.Context) (Report, error)
}

type ServiceImpl struct {
	repo      Repository
	processor *Processor
}

func NewService(repo Repository, processor *Processor) *ServiceImpl {
	return &ServiceImpl{repo: repo, processor: processor}
}

func (s *ServiceImpl) ListRules(ctx context.Context) ([]Rule, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) RegisterRule(ctx context.Context, source transaction.Transaction, recurrence transaction.Recurrence) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	frequency := ParseFrequency(recurrence.Frequency)
	transactionDay := utils.CivilDate(source.Date, currentUser.Location())
	next := FirstDueDate(transactionDay, frequency, recurrence.NextDueDate)
	if next.Before(transactionDay) {
		return ErrDueDateBeforeTransaction
	}

	_, err = s.repo.Create(ctx, currentUser.Id, Rule{
		Type:        source.Type,
		Amount:      source.Amount,
		Note:        source.Note,
		Category:    source.Category,
		Frequency:   frequency,
		NextDueDate: next,
	})
	return err
}

func (s *ServiceImpl) DeleteRule(ctx context.Context, ruleId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Delete(ctx, userId, ruleId)
}

func (s *ServiceImpl) ProcessDue(ctx context.Context) (Report, error) {
	return s.processor.ProcessDue(ctx)
}

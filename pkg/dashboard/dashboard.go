package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/budget"
	"github.com/spendlog/spendlog/pkg/notification"
	"github.com/spendlog/spendlog/pkg/recurring"
	"github.com/spendlog/spendlog/pkg/stats"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Dashboard struct {
	Stats        stats.StatsSummary
	Budget       budget.Progress
	Materialized int
	// Warnings describe problems that did not prevent the dashboard from loading.
	Warnings []string
}

type Service interface {
	Load(ctx context.Context, filter stats.Filter) (Dashboard, error)
	Reevaluate(ctx context.Context) error
}

// RuleProcessor materializes the due recurring rules of the current user.
type RuleProcessor interface {
	ProcessDue(ctx context.Context) (recurring.Report, error)
}

type ServiceImpl struct {
	rules        RuleProcessor
	transactions transaction.Service
	budgets      budget.BudgetService
	monitor      *notification.Monitor
	clock        utils.Clock
}

func NewService(rules RuleProcessor, transactions transaction.Service, budgets budget.BudgetService, monitor *notification.Monitor, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{rules: rules, transactions: transactions, budgets: budgets, monitor: monitor, clock: clock}
}

// Load runs the recurring scan to completion, then loads the transactions, reads the budget and evaluates the
// notification heuristics, in this order. Only a failed transaction load fails the dashboard.
func (s *ServiceImpl) Load(ctx context.Context, filter stats.Filter) (Dashboard, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to get current user: %w", err)
	}

	var dashboard Dashboard
	report, err := s.rules.ProcessDue(ctx)
	dashboard.Materialized = len(report.Materialized)
	if err != nil {
		dashboard.Warnings = append(dashboard.Warnings, scanWarnings(report, err)...)
	}

	transactions, err := s.transactions.Load(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	monthlyBudget, err := s.budgets.Get(ctx)
	if err != nil {
		log.Warnf("budget of user %d unavailable: %v", currentUser.Id, err)
		dashboard.Warnings = append(dashboard.Warnings, "Monthly budget could not be read")
		monthlyBudget = decimal.Zero
	}

	s.monitor.Evaluate(ctx, currentUser, transactions, monthlyBudget)

	now := s.clock.Now().In(currentUser.Location())
	dashboard.Stats = stats.Aggregate(transactions, filter, now)
	dashboard.Budget = budget.ComputeProgress(budget.MonthToDateExpense(transactions, now), monthlyBudget)
	return dashboard, nil
}

// Reevaluate runs the notification heuristics against the current transaction list and budget.
func (s *ServiceImpl) Reevaluate(ctx context.Context) error {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return err
	}
	monthlyBudget, err := s.budgets.Get(ctx)
	if err != nil {
		return err
	}
	s.monitor.Evaluate(ctx, currentUser, transactions, monthlyBudget)
	return nil
}

// Subscribe re-evaluates the heuristics whenever a transaction or the budget changes. Materialized
// transactions are skipped, Load evaluates them once the scan is done.
func (s *ServiceImpl) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	unsubscribeTransactions := event_bus.SubscribeTyped(bus, event_bus.TransactionsChanged,
		func(e event_bus.EventT[event_bus.TransactionsChangedData]) error {
			if e.Data.Kind == event_bus.ChangeMaterialized {
				return nil
			}
			return s.Reevaluate(e.Context())
		})
	unsubscribeBudget := event_bus.SubscribeTyped(bus, event_bus.BudgetUpdated,
		func(e event_bus.EventT[event_bus.BudgetUpdatedData]) error {
			return s.Reevaluate(e.Context())
		})
	return func() {
		unsubscribeTransactions()
		unsubscribeBudget()
	}
}

func scanWarnings(report recurring.Report, err error) []string {
	if len(report.Failures) == 0 {
		log.Warnf("recurring scan failed: %v", err)
		return []string{"Recurring transactions could not be processed, they will be retried on the next visit"}
	}
	var warnings []string
	for _, failure := range report.Failures {
		var partial *recurring.PartialMaterializationError
		if errors.As(failure, &partial) {
			warnings = append(warnings, fmt.Sprintf("Recurring transaction for rule %s was recorded but its next due date was not saved", partial.RuleId))
			continue
		}
		warnings = append(warnings, fmt.Sprintf("Recurring transaction could not be recorded: %v", failure))
	}
	return warnings
}

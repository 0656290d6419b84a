package recurring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spendlog/spendlog/internal/event_bus"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrPartialMaterialization = errors.New("recurring transaction created but rule not advanced")

// PartialMaterializationError reports a rule whose transaction was stored while its due date was not advanced.
// The next scan finds the same occurrence again and only advances the rule.
type PartialMaterializationError struct {
	RuleId        string
	TransactionId string
	Err           error
}

func (e *PartialMaterializationError) Error() string {
	return fmt.Sprintf("rule %s: transaction %s created but next due date not saved: %v", e.RuleId, e.TransactionId, e.Err)
}

func (e *PartialMaterializationError) Is(target error) bool {
	return target == ErrPartialMaterialization
}

func (e *PartialMaterializationError) Unwrap() error {
	return e.Err
}

type Report struct {
	Materialized []transaction.Transaction
	// Skipped is set when the user's rules were already scanned today.
	Skipped  bool
	Failures []error
}

// Processor turns due rules into transactions, at most once per user and calendar day.
type Processor struct {
	rules        Repository
	transactions transaction.Repository
	eventBus     *event_bus.EventBus
	clock        utils.Clock

	mu      sync.Mutex
	scanned map[int]string
}

func NewProcessor(rules Repository, transactions transaction.Repository, eventBus *event_bus.EventBus, clock utils.Clock) *Processor {
	return &Processor{
		rules:        rules,
		transactions: transactions,
		eventBus:     eventBus,
		clock:        clock,
		scanned:      map[int]string{},
	}
}

// ProcessDue materializes every due rule of the current user. Failures of single rules are collected in the
// report and joined into the returned error; the other rules are still processed.
func (p *Processor) ProcessDue(ctx context.Context) (Report, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get current user: %w", err)
	}
	now := p.clock.Now().In(currentUser.Location())
	day := utils.DayKey(now, now.Location())
	if !p.claim(currentUser.Id, day) {
		log.Debugf("recurring rules of user %d already processed on %s", currentUser.Id, day)
		return Report{Skipped: true}, nil
	}

	rules, err := p.rules.List(ctx, currentUser.Id)
	if err != nil {
		p.release(currentUser.Id, day)
		return Report{}, fmt.Errorf("failed to load recurring rules: %w", err)
	}

	var report Report
	for _, due := range Materialize(rules, now) {
		created, err := p.materialize(ctx, currentUser.Id, due)
		if err != nil {
			log.Warn(err)
			report.Failures = append(report.Failures, err)
		}
		if created != nil {
			report.Materialized = append(report.Materialized, *created)
			p.publish(ctx, currentUser.Id, created.Id)
		}
	}
	if len(report.Materialized) > 0 {
		log.Infof("materialized %d recurring transactions for user %d", len(report.Materialized), currentUser.Id)
	}
	if len(report.Failures) > 0 {
		// occurrences are unique per rule and date, a retry only picks up what failed
		p.release(currentUser.Id, day)
	}
	return report, errors.Join(report.Failures...)
}

// materialize stores the occurrence and advances the rule. The returned transaction is non-nil whenever a new
// transaction was stored, even if the rule update failed afterwards.
func (p *Processor) materialize(ctx context.Context, userId int, due Materialization) (*transaction.Transaction, error) {
	var created *transaction.Transaction
	stored, err := p.transactions.CreateMaterialized(ctx, userId, due.Transaction)
	switch {
	case errors.Is(err, transaction.ErrAlreadyMaterialized):
		log.Infof("occurrence %s of rule %s already recorded, advancing rule", due.Transaction.OccurrenceDate.Format(utils.DayLayout), due.Rule.Id)
	case err != nil:
		return nil, fmt.Errorf("failed to record occurrence of rule %s: %w", due.Rule.Id, err)
	default:
		created = &stored
	}

	if err := p.rules.UpdateNextDueDate(ctx, userId, due.Rule.Id, due.NextDueDate); err != nil {
		transactionId := ""
		if created != nil {
			transactionId = created.Id
		}
		return created, &PartialMaterializationError{RuleId: due.Rule.Id, TransactionId: transactionId, Err: err}
	}
	return created, nil
}

func (p *Processor) claim(userId int, day string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scanned[userId] == day {
		return false
	}
	p.scanned[userId] = day
	return true
}

func (p *Processor) release(userId int, day string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scanned[userId] == day {
		delete(p.scanned, userId)
	}
}

func (p *Processor) publish(ctx context.Context, userId int, transactionId string) {
	if p.eventBus == nil {
		return
	}
	err := p.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TransactionsChanged, event_bus.TransactionsChangedData{
		UserId:        userId,
		Kind:          event_bus.ChangeMaterialized,
		TransactionId: transactionId,
	}))
	if err != nil {
		log.Warnf("failed to publish %s event: %v", event_bus.TransactionsChanged, err)
	}
}

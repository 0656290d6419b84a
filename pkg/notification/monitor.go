package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/budget"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	BudgetAlertTitle         = "Budget Alert"
	SubscriptionRenewalTitle = "Subscription Renewal"
)

// Session is what the monitor remembers about a user between evaluations. Days are "2006-01-02" in the
// user's timezone.
type Session struct {
	LastBudgetAlert       string
	LastSubscriptionCheck string
	PermissionRequested   bool
}

// Monitor raises budget alerts and subscription reminders, each at most once per user and calendar day.
// Delivery problems are logged and never returned.
type Monitor struct {
	sink  Sink
	clock utils.Clock

	mu       sync.Mutex
	sessions map[int]*Session
}

func NewMonitor(sink Sink, clock utils.Clock) *Monitor {
	return &Monitor{sink: sink, clock: clock, sessions: map[int]*Session{}}
}

// Evaluate runs the budget heuristic and the subscription scan.
func (m *Monitor) Evaluate(ctx context.Context, recipient user.User, transactions []transaction.Transaction, monthlyBudget decimal.Decimal) {
	m.ensurePermission(ctx, recipient)
	m.EvaluateBudget(ctx, recipient, transactions, monthlyBudget)
	m.ScanSubscriptions(ctx, recipient, transactions)
}

// EvaluateBudget alerts when month-to-date spending reached 80% of a positive budget and no alert was raised
// today. It reports whether an alert was raised.
func (m *Monitor) EvaluateBudget(ctx context.Context, recipient user.User, transactions []transaction.Transaction, monthlyBudget decimal.Decimal) bool {
	now := m.clock.Now().In(recipient.Location())
	spent := budget.MonthToDateExpense(transactions, now)
	percent, ok := budget.Consumption(spent, monthlyBudget)
	if !ok || percent.LessThan(budget.AlertThreshold) {
		return false
	}

	today := utils.DayKey(now, now.Location())
	m.mu.Lock()
	session := m.session(recipient.Id)
	if session.LastBudgetAlert == today {
		m.mu.Unlock()
		return false
	}
	session.LastBudgetAlert = today
	m.mu.Unlock()

	symbol := recipient.CurrencySymbol()
	m.deliver(ctx, recipient, Notification{
		Title: BudgetAlertTitle,
		Body: fmt.Sprintf("You have used %s%% of your monthly budget (%s%s / %s%s).",
			percent.StringFixed(0), symbol, spent.String(), symbol, monthlyBudget.String()),
	})
	return true
}

// ScanSubscriptions reminds about every subscription renewing tomorrow. The scan runs once per day; later calls
// the same day return 0.
func (m *Monitor) ScanSubscriptions(ctx context.Context, recipient user.User, transactions []transaction.Transaction) int {
	now := m.clock.Now().In(recipient.Location())
	today := utils.DayKey(now, now.Location())

	m.mu.Lock()
	session := m.session(recipient.Id)
	if session.LastSubscriptionCheck == today {
		m.mu.Unlock()
		return 0
	}
	session.LastSubscriptionCheck = today
	m.mu.Unlock()

	tomorrow := utils.CivilDate(now, now.Location()).AddDate(0, 0, 1)
	reminded := 0
	for _, t := range transactions {
		if !t.IsSubscription || t.RenewalDate == nil {
			continue
		}
		if !utils.DateOnly(*t.RenewalDate).Equal(tomorrow) {
			continue
		}
		note := t.Note
		if note == "" {
			note = "Unknown"
		}
		m.deliver(ctx, recipient, Notification{
			Title: SubscriptionRenewalTitle,
			Body:  fmt.Sprintf("Your subscription for %s renews tomorrow!", note),
		})
		reminded++
	}
	return reminded
}

// Session returns a copy of the user's session state.
func (m *Monitor) Session(userId int) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.session(userId)
}

// ResetSession forgets what was already sent to the user.
func (m *Monitor) ResetSession(userId int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userId)
}

// RequestPermission asks the sink for permission to notify the user.
func (m *Monitor) RequestPermission(ctx context.Context, recipient user.User) Permission {
	m.mu.Lock()
	m.session(recipient.Id).PermissionRequested = true
	m.mu.Unlock()
	return m.sink.RequestPermission(ctx, recipient)
}

func (m *Monitor) Permission(ctx context.Context, recipient user.User) Permission {
	return m.sink.Permission(ctx, recipient)
}

func (m *Monitor) ensurePermission(ctx context.Context, recipient user.User) {
	m.mu.Lock()
	session := m.session(recipient.Id)
	requested := session.PermissionRequested
	session.PermissionRequested = true
	m.mu.Unlock()
	if requested {
		return
	}
	if m.sink.Permission(ctx, recipient) != PermissionGranted {
		m.sink.RequestPermission(ctx, recipient)
	}
}

func (m *Monitor) deliver(ctx context.Context, recipient user.User, n Notification) {
	if m.sink.Permission(ctx, recipient) != PermissionGranted {
		log.Infof("Notification permission not granted for user %d: %s: %s", recipient.Id, n.Title, n.Body)
		return
	}
	if err := m.sink.Send(ctx, recipient, n); err != nil {
		log.Warnf("failed to send notification %q to user %d: %v", n.Title, recipient.Id, err)
	}
}

// session must be called with mu held.
func (m *Monitor) session(userId int) *Session {
	s, ok := m.sessions[userId]
	if !ok {
		s = &Session{}
		m.sessions[userId] = s
	}
	return s
}

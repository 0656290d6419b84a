package recurring

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

type Frequency string

const (
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

// ParseFrequency is case-insensitive. Unknown values are treated as Monthly.
func ParseFrequency(value string) Frequency {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "weekly":
		return Weekly
	case "monthly":
		return Monthly
	case "yearly":
		return Yearly
	}
	log.Warnf("unknown recurrence frequency %q, treating it as %s", value, Monthly)
	return Monthly
}

// Rule is a template that produces one transaction per period.
type Rule struct {
	Id        string
	Type      transaction.Type
	Amount    decimal.Decimal
	Note      string
	Category  string
	Frequency Frequency
	// NextDueDate is a calendar date, stored at midnight UTC.
	NextDueDate time.Time
}

// Advance returns the due date one period after due. Months and years clamp to the end of the month.
func Advance(due time.Time, freq Frequency) time.Time {
	switch freq {
	case Weekly:
		return due.AddDate(0, 0, 7)
	case Yearly:
		return utils.AddMonthsClamped(due, 12)
	default:
		return utils.AddMonthsClamped(due, 1)
	}
}

// Materialization is one due occurrence of a rule: the transaction to record and the rule's next due date.
type Materialization struct {
	Rule        Rule
	Transaction transaction.Transaction
	NextDueDate time.Time
}

// Materialize returns an occurrence for every rule due on or before the calendar day of now, in now's location.
// A rule overdue by several periods yields only its oldest occurrence and advances by one period.
func Materialize(rules []Rule, now time.Time) []Materialization {
	loc := now.Location()
	today := utils.CivilDate(now, loc)

	var due []Materialization
	for _, rule := range rules {
		dueDate := utils.DateOnly(rule.NextDueDate)
		if dueDate.After(today) {
			continue
		}
		occurrence := dueDate
		due = append(due, Materialization{
			Rule: rule,
			Transaction: transaction.Transaction{
				Type:            rule.Type,
				Amount:          rule.Amount,
				Note:            rule.Note,
				Category:        rule.Category,
				Date:            time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, loc),
				RecurringRuleId: rule.Id,
				OccurrenceDate:  &occurrence,
			},
			NextDueDate: Advance(dueDate, rule.Frequency),
		})
	}
	return due
}

// FirstDueDate is the due date of a rule created from a transaction dated on date: explicit when
// requested, otherwise one period after the transaction.
func FirstDueDate(date time.Time, freq Frequency, requested *time.Time) time.Time {
	if requested != nil {
		return utils.DateOnly(*requested)
	}
	return Advance(utils.DateOnly(date), freq)
}

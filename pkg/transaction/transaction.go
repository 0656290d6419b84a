package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/utils"
)

type Type string

const (
	Income  Type = "income"
	Expense Type = "expense"
)

const DefaultCategory = "Others"

// Categories offered by the entry form. Any other non-empty category is accepted as a custom one.
var Categories = []string{
	"Food", "Travel", "Bills", "Shopping", "Salary", "Investment", "Health", "Entertainment", "Education", DefaultCategory,
}

type Transaction struct {
	Id             string
	Type           Type
	Amount         decimal.Decimal
	Note           string
	Category       string
	Date           time.Time
	IsSubscription bool
	// RenewalDate is a calendar date, stored at midnight UTC.
	RenewalDate *time.Time
	// RecurringRuleId and OccurrenceDate are set only on transactions materialized from a recurring rule.
	RecurringRuleId string
	OccurrenceDate  *time.Time
}

func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// Recurrence asks for a recurring rule to be created next to a new transaction.
type Recurrence struct {
	Frequency   string
	NextDueDate *time.Time
}

// Draft is user input for a transaction before validation. Pointer fields distinguish "missing" from zero.
type Draft struct {
	Type           Type
	Amount         *decimal.Decimal
	Note           string
	Category       string
	Date           *time.Time
	IsSubscription bool
	RenewalDate    *time.Time
	Recurrence     *Recurrence
}

var (
	ErrValidation     = errors.New("invalid transaction")
	ErrAmountRequired = fmt.Errorf("%w: amount is required", ErrValidation)
	ErrNegativeAmount = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	ErrNoteRequired   = fmt.Errorf("%w: note is required", ErrValidation)
	ErrDateRequired   = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidType    = fmt.Errorf("%w: type must be income or expense", ErrValidation)
)

// Validate checks the draft and returns the transaction it describes. Nothing is written on failure.
func (d Draft) Validate() (Transaction, error) {
	if d.Amount == nil {
		return Transaction{}, ErrAmountRequired
	}
	if d.Amount.IsNegative() {
		return Transaction{}, ErrNegativeAmount
	}
	note := strings.TrimSpace(d.Note)
	if note == "" {
		return Transaction{}, ErrNoteRequired
	}
	if d.Date == nil || d.Date.IsZero() {
		return Transaction{}, ErrDateRequired
	}
	txType := d.Type
	if txType == "" {
		txType = Expense
	}
	if txType != Income && txType != Expense {
		return Transaction{}, ErrInvalidType
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}

	t := Transaction{
		Type:           txType,
		Amount:         *d.Amount,
		Note:           note,
		Category:       category,
		Date:           *d.Date,
		IsSubscription: d.IsSubscription,
	}
	if d.IsSubscription && d.RenewalDate != nil {
		renewal := utils.DateOnly(*d.RenewalDate)
		t.RenewalDate = &renewal
	}
	return t, nil
}

package budget

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/pkg/transaction"
)

var (
	hundred = decimal.NewFromInt(100)
	// AlertThreshold is the consumption percentage from which the user is alerted.
	AlertThreshold = decimal.NewFromInt(80)
	// WarningThreshold is the consumption percentage above which progress is shown as a warning.
	WarningThreshold = decimal.NewFromInt(90)
)

// MonthToDateExpense sums expenses dated in the calendar month of now, in now's location.
func MonthToDateExpense(transactions []transaction.Transaction, now time.Time) decimal.Decimal {
	loc := now.Location()
	year, month, _ := now.Date()
	total := decimal.Zero
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		y, m, _ := t.Date.In(loc).Date()
		if y == year && m == month {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Consumption is spent as a percentage of budget. It is undefined (ok is false) when budget is not positive.
func Consumption(spent, budget decimal.Decimal) (percent decimal.Decimal, ok bool) {
	if !budget.IsPositive() {
		return decimal.Zero, false
	}
	return spent.Div(budget).Mul(hundred), true
}

type Progress struct {
	Spent   decimal.Decimal
	Budget  decimal.Decimal
	Percent decimal.Decimal
	// Display is Percent capped at 100.
	Display decimal.Decimal
	Warning bool
	// Defined is false when no budget is set.
	Defined bool
}

func ComputeProgress(spent, budget decimal.Decimal) Progress {
	progress := Progress{Spent: spent, Budget: budget, Percent: decimal.Zero, Display: decimal.Zero}
	percent, ok := Consumption(spent, budget)
	if !ok {
		return progress
	}
	progress.Defined = true
	progress.Percent = percent
	progress.Display = decimal.Min(percent, hundred)
	progress.Warning = percent.GreaterThan(WarningThreshold)
	return progress
}

// ShouldAlert reports whether consumption reached the alert threshold.
func ShouldAlert(spent, budget decimal.Decimal) bool {
	percent, ok := Consumption(spent, budget)
	return ok && percent.GreaterThanOrEqual(AlertThreshold)
}

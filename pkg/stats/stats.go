package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
)

type Filter string

const (
	FilterAll       Filter = ""
	FilterToday     Filter = "today"
	FilterYesterday Filter = "yesterday"
	FilterMonth     Filter = "month"
)

var ErrUnknownFilter = fmt.Errorf("unknown filter, use one of %q, %q, %q or none", FilterToday, FilterYesterday, FilterMonth)

// ParseFilter accepts "today", "yesterday", "month" and "" or "all" for no filtering.
func ParseFilter(value string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return FilterAll, nil
	case "today":
		return FilterToday, nil
	case "yesterday":
		return FilterYesterday, nil
	case "month":
		return FilterMonth, nil
	}
	return FilterAll, fmt.Errorf("%w: %q", ErrUnknownFilter, value)
}

// FilterTransactions returns a new slice with the transactions matching filter, compared by calendar day or
// month in now's location. Unknown filters keep every transaction.
func FilterTransactions(transactions []transaction.Transaction, filter Filter, now time.Time) []transaction.Transaction {
	loc := now.Location()
	var match func(t transaction.Transaction) bool
	switch filter {
	case FilterToday:
		match = func(t transaction.Transaction) bool { return utils.SameDay(t.Date, now, loc) }
	case FilterYesterday:
		yesterday := now.AddDate(0, 0, -1)
		match = func(t transaction.Transaction) bool { return utils.SameDay(t.Date, yesterday, loc) }
	case FilterMonth:
		match = func(t transaction.Transaction) bool { return utils.SameMonth(t.Date, now, loc) }
	default:
		return slices.Clone(transactions)
	}

	filtered := make([]transaction.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if match(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

type CategoryTotal struct {
	Category string
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	// Balance is Income minus Expense.
	Balance    decimal.Decimal
	Count      int
	ByCategory []CategoryTotal
}

// Summarize totals transactions. Categories are ordered by expense, largest first, then by name.
func Summarize(transactions []transaction.Transaction) Summary {
	summary := Summary{Income: decimal.Zero, Expense: decimal.Zero, Count: len(transactions)}
	byCategory := map[string]*CategoryTotal{}
	for _, t := range transactions {
		total, ok := byCategory[t.Category]
		if !ok {
			total = &CategoryTotal{Category: t.Category, Income: decimal.Zero, Expense: decimal.Zero}
			byCategory[t.Category] = total
		}
		switch t.Type {
		case transaction.Income:
			summary.Income = summary.Income.Add(t.Amount)
			total.Income = total.Income.Add(t.Amount)
		case transaction.Expense:
			summary.Expense = summary.Expense.Add(t.Amount)
			total.Expense = total.Expense.Add(t.Amount)
		}
	}
	summary.Balance = summary.Income.Sub(summary.Expense)

	summary.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, total := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *total)
	}
	slices.SortFunc(summary.ByCategory, func(a, b CategoryTotal) int {
		if c := b.Expense.Cmp(a.Expense); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return summary
}

// StatsSummary is the aggregate of one filtered view.
type StatsSummary struct {
	Filter       Filter
	GeneratedAt  time.Time
	Transactions []transaction.Transaction
	Summary      Summary
}

package voice

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/pkg/transaction"
)

var (
	amountRe   = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)(?:\s*(crores?|lakhs?|thousand)\b)?`)
	incomeRe   = regexp.MustCompile(`(?i)\b(income|salary|credit)\b`)
	expenseRe  = regexp.MustCompile(`(?i)\b(expense|spent|paid)\b`)
	keywordRe  = regexp.MustCompile(`(?i)\b(income|expense|spent|paid|salary|credit)\b`)
	currencyRe = regexp.MustCompile(`(?i)\b(rupees|rs|in)\b\.?`)
)

var multipliers = map[string]decimal.Decimal{
	"crore":    decimal.New(1, 7),
	"lakh":     decimal.New(1, 5),
	"thousand": decimal.New(1, 3),
}

// ParseUtterance turns a spoken sentence like "spent 500 rupees for lunch" into a draft.
// Fields that cannot be recognised are left empty so the form keeps its current values.
func ParseUtterance(text string) transaction.Draft {
	var draft transaction.Draft

	if incomeRe.MatchString(text) {
		draft.Type = transaction.Income
	} else if expenseRe.MatchString(text) {
		draft.Type = transaction.Expense
	}

	rest := text
	if loc := amountRe.FindStringSubmatchIndex(text); loc != nil {
		if amount, ok := parseAmount(text[loc[2]:loc[3]], submatch(text, loc, 2)); ok {
			draft.Amount = &amount
		}
		rest = text[:loc[0]] + " " + text[loc[1]:]
	}

	rest = keywordRe.ReplaceAllString(rest, " ")
	rest = currencyRe.ReplaceAllString(rest, " ")
	draft.Note = capitalize(strings.Join(strings.Fields(rest), " "))
	draft.Category = guessCategory(draft.Note)
	return draft
}

func parseAmount(raw string, unit string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	unit = strings.TrimSuffix(strings.ToLower(unit), "s")
	if multiplier, ok := multipliers[unit]; ok {
		amount = amount.Mul(multiplier)
	}
	return amount, true
}

func submatch(text string, loc []int, group int) string {
	start, end := loc[2*group], loc[2*group+1]
	if start < 0 {
		return ""
	}
	return text[start:end]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}

// guessCategory picks the first known category mentioned in the note, or "" when none is.
func guessCategory(note string) string {
	words := strings.FieldsFunc(strings.ToLower(note), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, category := range transaction.Categories {
		if category == transaction.DefaultCategory {
			continue
		}
		for _, word := range words {
			if word == strings.ToLower(category) {
				return category
			}
		}
	}
	return ""
}

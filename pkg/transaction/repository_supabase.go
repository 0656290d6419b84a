package transaction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const supabaseTable = "transactions"

// SupabaseRepository keeps transactions in a hosted Supabase project. The table mirrors the Postgres schema.
type SupabaseRepository struct {
	client *supabase.Client
}

func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

type supabaseRow struct {
	Id              string          `json:"id"`
	UserId          int             `json:"user_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Note            string          `json:"note"`
	Category        string          `json:"category"`
	Date            time.Time       `json:"date"`
	IsSubscription  bool            `json:"is_subscription"`
	RenewalDate     *string         `json:"renewal_date"`
	RecurringRuleId *string         `json:"recurring_rule_id"`
	OccurrenceDate  *string         `json:"occurrence_date"`
}

func (r *SupabaseRepository) Create(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	t.Id = uuid.NewString()
	return r.insert(userId, t)
}

func (r *SupabaseRepository) CreateMaterialized(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	t.Id = uuid.NewString()
	created, err := r.insert(userId, t)
	if err != nil && strings.Contains(err.Error(), "23505") {
		return Transaction{}, ErrAlreadyMaterialized
	}
	return created, err
}

func (r *SupabaseRepository) insert(userId int, t Transaction) (Transaction, error) {
	data, _, err := r.client.From(supabaseTable).Insert(toSupabaseRow(userId, t), false, "", "representation", "").Execute()
	if err != nil {
		err := fmt.Errorf("could not store transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return firstRow(data)
}

func (r *SupabaseRepository) Get(ctx context.Context, userId int, id string) (Transaction, error) {
	data, _, err := r.client.From(supabaseTable).
		Select("*", "", false).
		Eq("user_id", strconv.Itoa(userId)).
		Eq("id", id).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not get transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return firstRow(data)
}

func (r *SupabaseRepository) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	patch := map[string]any{
		"type":            string(t.Type),
		"amount":          t.Amount,
		"note":            t.Note,
		"category":        t.Category,
		"date":            t.Date,
		"is_subscription": t.IsSubscription,
		"renewal_date":    formatDate(t.RenewalDate),
	}
	data, _, err := r.client.From(supabaseTable).
		Update(patch, "representation", "").
		Eq("user_id", strconv.Itoa(userId)).
		Eq("id", t.Id).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not update transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return firstRow(data)
}

func (r *SupabaseRepository) Delete(ctx context.Context, userId int, id string) error {
	data, _, err := r.client.From(supabaseTable).
		Delete("representation", "").
		Eq("user_id", strconv.Itoa(userId)).
		Eq("id", id).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not delete transaction: %w", err)
		log.Error(err)
		return err
	}
	_, err = firstRow(data)
	return err
}

func (r *SupabaseRepository) List(ctx context.Context, userId int) ([]Transaction, error) {
	data, _, err := r.client.From(supabaseTable).
		Select("*", "", false).
		Eq("user_id", strconv.Itoa(userId)).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	return decodeRows(data)
}

func decodeRows(data []byte) ([]Transaction, error) {
	var rows []supabaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	transactions := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTransaction()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func firstRow(data []byte) (Transaction, error) {
	transactions, err := decodeRows(data)
	if err != nil {
		return Transaction{}, err
	}
	if len(transactions) == 0 {
		return Transaction{}, ErrTransactionNotFound
	}
	return transactions[0], nil
}

func toSupabaseRow(userId int, t Transaction) supabaseRow {
	row := supabaseRow{
		Id:             t.Id,
		UserId:         userId,
		Type:           string(t.Type),
		Amount:         t.Amount,
		Note:           t.Note,
		Category:       t.Category,
		Date:           t.Date,
		IsSubscription: t.IsSubscription,
		RenewalDate:    formatDate(t.RenewalDate),
		OccurrenceDate: formatDate(t.OccurrenceDate),
	}
	if t.RecurringRuleId != "" {
		row.RecurringRuleId = &t.RecurringRuleId
	}
	return row
}

func (row supabaseRow) toTransaction() (Transaction, error) {
	t := Transaction{
		Id:             row.Id,
		Type:           Type(row.Type),
		Amount:         row.Amount,
		Note:           row.Note,
		Category:       row.Category,
		Date:           row.Date,
		IsSubscription: row.IsSubscription,
	}
	var err error
	if t.RenewalDate, err = parseDate(row.RenewalDate); err != nil {
		return Transaction{}, err
	}
	if t.OccurrenceDate, err = parseDate(row.OccurrenceDate); err != nil {
		return Transaction{}, err
	}
	if row.RecurringRuleId != nil {
		t.RecurringRuleId = *row.RecurringRuleId
	}
	return t, nil
}

func formatDate(date *time.Time) *string {
	if date == nil {
		return nil
	}
	s := date.Format(time.DateOnly)
	return &s
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	date, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", *value, err)
	}
	return &date, nil
}

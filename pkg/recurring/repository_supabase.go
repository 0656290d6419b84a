package recurring

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendlog/spendlog/pkg/transaction"
	log "github.com/sirupsen/logrus"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const supabaseTable = "recurring_rules"

type SupabaseRepository struct {
	client *supabase.Client
}

func NewSupabaseRepository(client *supabase.Client) *SupabaseRepository {
	return &SupabaseRepository{client: client}
}

type supabaseRow struct {
	Id          string          `json:"id"`
	UserId      int             `json:"user_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note"`
	Category    string          `json:"category"`
	Frequency   string          `json:"frequency"`
	NextDueDate string          `json:"next_due_date"`
}

func (r *SupabaseRepository) Create(ctx context.Context, userId int, rule Rule) (Rule, error) {
	row := supabaseRow{
		Id:          uuid.NewString(),
		UserId:      userId,
		Type:        string(rule.Type),
		Amount:      rule.Amount,
		Note:        rule.Note,
		Category:    rule.Category,
		Frequency:   string(rule.Frequency),
		NextDueDate: rule.NextDueDate.Format(time.DateOnly),
	}
	data, _, err := r.client.From(supabaseTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		err := fmt.Errorf("could not store recurring rule: %w", err)
		log.Error(err)
		return Rule{}, err
	}
	rules, err := decodeRules(data)
	if err != nil {
		return Rule{}, err
	}
	if len(rules) == 0 {
		return Rule{}, fmt.Errorf("recurring rule insert returned no row")
	}
	return rules[0], nil
}

func (r *SupabaseRepository) List(ctx context.Context, userId int) ([]Rule, error) {
	data, _, err := r.client.From(supabaseTable).
		Select("*", "", false).
		Eq("user_id", strconv.Itoa(userId)).
		Order("next_due_date", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not query recurring rules: %w", err)
		log.Error(err)
		return nil, err
	}
	return decodeRules(data)
}

func (r *SupabaseRepository) UpdateNextDueDate(ctx context.Context, userId int, ruleId string, next time.Time) error {
	data, _, err := r.client.From(supabaseTable).
		Update(map[string]any{"next_due_date": next.Format(time.DateOnly)}, "representation", "").
		Eq("user_id", strconv.Itoa(userId)).
		Eq("id", ruleId).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not update recurring rule: %w", err)
		log.Error(err)
		return err
	}
	return requireRow(data)
}

func (r *SupabaseRepository) Delete(ctx context.Context, userId int, ruleId string) error {
	data, _, err := r.client.From(supabaseTable).
		Delete("representation", "").
		Eq("user_id", strconv.Itoa(userId)).
		Eq("id", ruleId).
		Execute()
	if err != nil {
		err := fmt.Errorf("could not delete recurring rule: %w", err)
		log.Error(err)
		return err
	}
	return requireRow(data)
}

func requireRow(data []byte) error {
	rules, err := decodeRules(data)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func decodeRules(data []byte) ([]Rule, error) {
	var rows []supabaseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse recurring rules: %w", err)
	}
	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		due, err := time.Parse(time.DateOnly, row.NextDueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid next due date %q: %w", row.NextDueDate, err)
		}
		rules = append(rules, Rule{
			Id:          row.Id,
			Type:        transaction.Type(row.Type),
			Amount:      row.Amount,
			Note:        row.Note,
			Category:    row.Category,
			Frequency:   ParseFrequency(row.Frequency),
			NextDueDate: due,
		})
	}
	return rules, nil
}

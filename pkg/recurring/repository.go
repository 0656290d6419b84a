package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendlog/spendlog/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

var ErrRuleNotFound = errors.New("recurring rule not found")

type Repository interface {
	Create(ctx context.Context, userId int, rule Rule) (Rule, error)
	// List returns the user's rules ordered by next due date.
	List(ctx context.Context, userId int) ([]Rule, error)
	UpdateNextDueDate(ctx context.Context, userId int, ruleId string, next time.Time) error
	Delete(ctx context.Context, userId int, ruleId string) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const ruleColumns = `id::text, type, amount, note, category, frequency, next_due_date`

func (r *RepositoryImpl) Create(ctx context.Context, userId int, rule Rule) (Rule, error) {
	query := `INSERT INTO recurring_rules (user_id, type, amount, note, category, frequency, next_due_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + ruleColumns
	created, err := scanRule(r.db.QueryRow(ctx, query,
		userId,
		string(rule.Type),
		rule.Amount,
		rule.Note,
		rule.Category,
		string(rule.Frequency),
		rule.NextDueDate,
	))
	if err != nil {
		err := fmt.Errorf("could not store recurring rule: %w", err)
		log.Error(err)
		return Rule{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE user_id = $1 ORDER BY next_due_date, created_at`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query recurring rules: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return rules, nil
}

func (r *RepositoryImpl) UpdateNextDueDate(ctx context.Context, userId int, ruleId string, next time.Time) error {
	if uuid.Validate(ruleId) != nil {
		return ErrRuleNotFound
	}
	result, err := r.db.Exec(ctx, `UPDATE recurring_rules SET next_due_date = $1 WHERE user_id = $2 AND id = $3`,
		next, userId, ruleId)
	if err != nil {
		err := fmt.Errorf("could not update recurring rule: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, ruleId string) error {
	if uuid.Validate(ruleId) != nil {
		return ErrRuleNotFound
	}
	result, err := r.db.Exec(ctx, `DELETE FROM recurring_rules WHERE user_id = $1 AND id = $2`, userId, ruleId)
	if err != nil {
		err := fmt.Errorf("could not delete recurring rule: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func scanRule(row pgx.Row) (Rule, error) {
	var rule Rule
	var ruleType, frequency string
	err := row.Scan(
		&rule.Id,
		&ruleType,
		&rule.Amount,
		&rule.Note,
		&rule.Category,
		&frequency,
		&rule.NextDueDate,
	)
	if err != nil {
		return Rule{}, err
	}
	rule.Type = transaction.Type(ruleType)
	rule.Frequency = ParseFrequency(frequency)
	return rule, nil
}

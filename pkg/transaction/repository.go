package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// ErrAlreadyMaterialized is returned when a rule occurrence was already turned into a transaction.
var ErrAlreadyMaterialized = errors.New("recurring occurrence already materialized")

type Repository interface {
	Create(ctx context.Context, userId int, t Transaction) (Transaction, error)
	CreateMaterialized(ctx context.Context, userId int, t Transaction) (Transaction, error)
	Get(ctx context.Context, userId int, id string) (Transaction, error)
	Update(ctx context.Context, userId int, t Transaction) (Transaction, error)
	Delete(ctx context.Context, userId int, id string) error
	// List returns all transactions of the user, newest first.
	List(ctx context.Context, userId int) ([]Transaction, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const transactionColumns = `id::text, type, amount, note, category, date, is_subscription, renewal_date,
				COALESCE(recurring_rule_id::text, ''), occurrence_date`

func (r *RepositoryImpl) Create(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `INSERT INTO transactions (user_id, type, amount, note, category, date, is_subscription, renewal_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + transactionColumns
	created, err := scanTransaction(r.db.QueryRow(ctx, query,
		userId,
		string(t.Type),
		t.Amount,
		t.Note,
		t.Category,
		t.Date,
		t.IsSubscription,
		t.RenewalDate,
	))
	if err != nil {
		err := fmt.Errorf("could not store transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) CreateMaterialized(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `INSERT INTO transactions (user_id, type, amount, note, category, date, is_subscription, renewal_date,
				recurring_rule_id, occurrence_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (recurring_rule_id, occurrence_date) WHERE recurring_rule_id IS NOT NULL DO NOTHING
				RETURNING ` + transactionColumns
	created, err := scanTransaction(r.db.QueryRow(ctx, query,
		userId,
		string(t.Type),
		t.Amount,
		t.Note,
		t.Category,
		t.Date,
		t.IsSubscription,
		t.RenewalDate,
		t.RecurringRuleId,
		t.OccurrenceDate,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrAlreadyMaterialized
	}
	if err != nil {
		err := fmt.Errorf("could not store materialized transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, userId int, id string) (Transaction, error) {
	if uuid.Validate(id) != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND id = $2`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, userId, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

// Update writes the editable fields only; the materialization link of a transaction is never changed.
func (r *RepositoryImpl) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	if uuid.Validate(t.Id) != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	query := `UPDATE transactions SET type = $1, amount = $2, note = $3, category = $4, date = $5,
				is_subscription = $6, renewal_date = $7
				WHERE user_id = $8 AND id = $9 RETURNING ` + transactionColumns
	updated, err := scanTransaction(r.db.QueryRow(ctx, query,
		string(t.Type),
		t.Amount,
		t.Note,
		t.Category,
		t.Date,
		t.IsSubscription,
		t.RenewalDate,
		userId,
		t.Id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not update transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return updated, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id string) error {
	if uuid.Validate(id) != nil {
		return ErrTransactionNotFound
	}
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userId, id)
	if err != nil {
		err := fmt.Errorf("could not delete transaction: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *RepositoryImpl) List(ctx context.Context, userId int) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]Transaction, 0, 32)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var txType string
	err := row.Scan(
		&t.Id,
		&txType,
		&t.Amount,
		&t.Note,
		&t.Category,
		&t.Date,
		&t.IsSubscription,
		&t.RenewalDate,
		&t.RecurringRuleId,
		&t.OccurrenceDate,
	)
	if err != nil {
		return Transaction{}, err
	}
	t.Type = Type(txType)
	return t, nil
}

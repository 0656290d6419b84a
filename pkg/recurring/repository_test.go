package recurring

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendlog/spendlog/internal/test_utils"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *pgxpool.Pool, int) {
	ctx := context.Background()
	db := openDb()
	userId := test_utils.CreateDbUser(t, ctx, db, "rules-user")
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, db, userId
}

func TestRepositoryImpl(t *testing.T) {
	t.Run("should store, advance and delete a rule", func(t *testing.T) {
		// given
		ctx, db, userId := setupTestRepository(t)
		repo := NewRepository(db)

		// when
		created, err := repo.Create(ctx, userId, rule("", Weekly, day(2024, 1, 1)))
		require.NoError(t, err)
		err = repo.UpdateNextDueDate(ctx, userId, created.Id, day(2024, 1, 8))
		require.NoError(t, err)

		// then
		rules, err := repo.List(ctx, userId)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "2024-01-08", rules[0].NextDueDate.Format(time.DateOnly))
		assert.Equal(t, Weekly, rules[0].Frequency)
		assert.Equal(t, transaction.Expense, rules[0].Type)

		assert.NoError(t, repo.Delete(ctx, userId, created.Id))
		assert.ErrorIs(t, repo.Delete(ctx, userId, created.Id), ErrRuleNotFound)
		assert.ErrorIs(t, repo.UpdateNextDueDate(ctx, userId, uuid.NewString(), day(2024, 1, 8)), ErrRuleNotFound)
	})
}

func TestProcessor_WithPostgres(t *testing.T) {
	t.Run("should create a single transaction for an occurrence across processor instances", func(t *testing.T) {
		// given
		ctx, db, userId := setupTestRepository(t)
		rules := NewRepository(db)
		transactions := transaction.NewRepository(db)
		created, err := rules.Create(ctx, userId, rule("", Weekly, day(2024, 1, 1)))
		require.NoError(t, err)
		clock := &utils.MockClock{FixedNow: time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)}
		userCtx := user.WithUser(ctx, user.User{Id: userId, Settings: user.Settings{Timezone: "UTC"}})

		// when the first run stores the transaction but the second instance sees the old due date
		first, err := NewProcessor(rules, transactions, nil, clock).ProcessDue(userCtx)
		require.NoError(t, err)
		require.NoError(t, rules.UpdateNextDueDate(ctx, userId, created.Id, day(2024, 1, 1)))
		second, err := NewProcessor(rules, transactions, nil, clock).ProcessDue(userCtx)

		// then
		require.NoError(t, err)
		assert.Len(t, first.Materialized, 1)
		assert.Empty(t, second.Materialized)
		stored, err := transactions.List(ctx, userId)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

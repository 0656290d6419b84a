package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/require"
)

// TestUser is the user most service tests run as.
var TestUser = user.User{
	Id:          123,
	Uid:         "test-uid",
	Username:    "test_user",
	DisplayName: "Test User",
	Settings: user.Settings{
		Timezone: "Asia/Kolkata",
		Currency: "INR",
	},
}

// TestUserContext returns a context carrying TestUser.
func TestUserContext() context.Context {
	return user.WithUser(context.Background(), TestUser)
}

// CreateDbUser inserts a user row so rows referencing users(id) can be written, and returns its id.
func CreateDbUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, uid string) int {
	t.Helper()
	u := TestUser
	u.Uid = uid
	u.Username = uid
	id, err := user.NewUserRepo(pool).CreateUser(ctx, u)
	require.NoError(t, err)
	return id
}

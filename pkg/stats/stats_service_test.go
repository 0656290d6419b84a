package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/transaction"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 3, Uid: "uid-3", Settings: user.Settings{Timezone: "UTC"}})

func newStatsService(t *testing.T) *StatsServiceImpl {
	t.Helper()
	repo := transaction.NewRepositoryStub()
	for _, entry := range sample() {
		_, err := repo.Create(context.Background(), 3, entry)
		require.NoError(t, err)
	}
	transactions := transaction.NewService(repo, transaction.NewLedger(repo), nil, nil)
	return NewStatsServiceImpl(transactions, &utils.MockClock{FixedNow: now})
}

func TestStatsServiceImpl_GetStats(t *testing.T) {
	t.Run("should aggregate the user's transactions", func(t *testing.T) {
		service := newStatsService(t)

		stats, err := service.GetStats(ctx, FilterMonth)

		require.NoError(t, err)
		assert.Len(t, stats.Transactions, 4)
		assert.Equal(t, "49499.5", stats.Summary.Balance.String())
	})

	t.Run("should require a user", func(t *testing.T) {
		service := newStatsService(t)

		_, err := service.GetStats(context.Background(), FilterAll)

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestStatsHandler(t *testing.T) {
	handler := NewStatsHandler(newStatsService(t), NewCsvStatsRenderer(), NewChartRenderer())
	serve := func(h http.HandlerFunc, url string, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, url, nil).WithContext(ctx)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	t.Run("should return json totals", func(t *testing.T) {
		w := serve(handler.GetStats, "/api/stats?filter=today", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), `"balance":"49879.5"`)
	})

	t.Run("should return csv when asked", func(t *testing.T) {
		byAccept := serve(handler.GetStats, "/api/stats?filter=today", "text/csv")
		byPath := serve(handler.GetStatsCsv, "/api/stats/csv?filter=today", "")

		assert.Equal(t, http.StatusOK, byAccept.Code)
		assert.Equal(t, "text/csv; charset=utf-8", byPath.Header().Get("Content-Type"))
		assert.Equal(t, byAccept.Body.String(), byPath.Body.String())
	})

	t.Run("should reject unknown filters", func(t *testing.T) {
		w := serve(handler.GetStats, "/api/stats?filter=week", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should render the chart", func(t *testing.T) {
		w := serve(handler.GetChart, "/api/stats/chart", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	})

	t.Run("should answer forbidden without a user", func(t *testing.T) {
		for _, h := range []http.HandlerFunc{handler.GetStats, handler.GetChart} {
			// given
			req := httptest.NewRequest(http.MethodGet, "/api/stats/chart", nil)
			w := httptest.NewRecorder()

			// when
			h(w, req)

			// then
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		}
	})

	t.Run("should answer no content when nothing was spent", func(t *testing.T) {
		repo := transaction.NewRepositoryStub()
		transactions := transaction.NewService(repo, transaction.NewLedger(repo), nil, nil)
		empty := NewStatsHandler(NewStatsServiceImpl(transactions, &utils.MockClock{FixedNow: now}), NewCsvStatsRenderer(), NewChartRenderer())

		w := serve(empty.GetChart, "/api/stats/chart", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

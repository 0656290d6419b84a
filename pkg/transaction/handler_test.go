package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/spendlog/spendlog/internal/utils"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*Handler, *mux.Router) {
	teardown := setup(t)
	t.Cleanup(teardown)
	handler := NewHandler(service)
	router := mux.NewRouter()
	router.HandleFunc("/api/transaction", handler.List).Methods("GET")
	router.HandleFunc("/api/transaction", handler.Create).Methods("POST")
	router.HandleFunc("/api/transaction/{transactionId}", handler.Update).Methods("PUT")
	router.HandleFunc("/api/transaction/{transactionId}", handler.Delete).Methods("DELETE")
	return handler, router
}

func doRequest(router *mux.Router, method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Create(t *testing.T) {
	t.Run("should create with plain date and default category", func(t *testing.T) {
		_, router := setupHandlerTest(t)

		// when
		w := doRequest(router, http.MethodPost, "/api/transaction", map[string]any{
			"type": "expense", "amount": 250, "note": "Dinner", "date": "2024-01-05",
		})

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		var result AddResultDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.NotEmpty(t, result.Transaction.Id)
		assert.Equal(t, DefaultCategory, result.Transaction.Category)
		assert.Equal(t, "250", result.Transaction.Amount.String())
		assert.Empty(t, result.Warning)
	})

	t.Run("should return 400 with details on validation error", func(t *testing.T) {
		_, router := setupHandlerTest(t)

		// when
		w := doRequest(router, http.MethodPost, "/api/transaction", map[string]any{"note": "Dinner", "date": "2024-01-05"})

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Equal(t, "Invalid transaction", errResponse.Error)
		assert.Contains(t, errResponse.Details, "amount is required")
	})

	t.Run("should read a plain date as a calendar day of the user", func(t *testing.T) {
		// given
		_, router := setupHandlerTest(t)
		newYorkCtx := user.WithUser(context.Background(), user.User{Id: 1, Uid: "uid-1", Settings: user.Settings{Timezone: "America/New_York"}})
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{"amount": 800, "note": "Rent", "date": "2024-02-01"}))
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", &buf).WithContext(newYorkCtx)
		w := httptest.NewRecorder()

		// when
		router.ServeHTTP(w, req)

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		stored, err := repoStub.List(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		newYork := utils.Location("America/New_York")
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, newYork), stored[0].Date.In(newYork))
	})

	t.Run("should return 400 on malformed date", func(t *testing.T) {
		_, router := setupHandlerTest(t)

		w := doRequest(router, http.MethodPost, "/api/transaction", map[string]any{"amount": 1, "note": "x", "date": "05/01/2024"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should report a warning when the recurring rule is not saved", func(t *testing.T) {
		_, router := setupHandlerTest(t)
		registrar.err = assert.AnError

		w := doRequest(router, http.MethodPost, "/api/transaction", map[string]any{
			"amount": 1000, "note": "Rent", "date": "2024-01-01", "isRecurring": true, "frequency": "Monthly",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var result AddResultDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Contains(t, result.Warning, "recurring rule")
	})
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	_, router := setupHandlerTest(t)
	created, err := service.Add(ctx, validDraft("Lunch"))
	require.NoError(t, err)

	w := doRequest(router, http.MethodPut, "/api/transaction/"+created.Id, map[string]any{
		"type": "expense", "amount": "99.90", "note": "Lunch with team", "category": "Food", "date": "2024-01-05T13:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated TransactionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "Food", updated.Category)

	w = doRequest(router, http.MethodDelete, "/api/transaction/"+created.Id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/transaction/"+created.Id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/transaction", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []TransactionDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	assert.Empty(t, listed)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/notify"
	"expenses/internal/rates"
	"expenses/internal/services"
	"expenses/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)

	snap := rates.NewSnapshot()
	snap.Set(core.RateTable{"USD": 1, "EUR": 0.9, "GBP": 0.8})

	logger := log.New(log.DefaultConfig())
	authMgr := auth.NewManager("test-secret", 4, time.Hour)
	svc := services.NewEntryService(repo, nil)

	s := NewServer(":0", svc, repo, authMgr, snap, notify.NewSlogSink(logger), logger)
	t.Cleanup(func() {
		s.Shutdown(context.Background())
		svc.Close()
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, s *Server, username string) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createTestEntry(t *testing.T, s *Server, token string, body map[string]any) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/entries", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": "ab", "password": "password123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": "valid", "password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	registerUser(t, s, "valid")
	rec = doJSON(t, s, http.MethodPost, "/api/register", "", map[string]string{
		"username": "valid", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Username exists"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "nobody", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/entries", "/api/budgets", "/api/summary", "/api/rates",
	} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/entries", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEntryLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "bob")

	createTestEntry(t, s, token, map[string]any{
		"title": "Groceries", "amount": "42.50", "currency": "EUR",
		"category": "Food", "type": "expense", "date": "2025-06-10",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/entries", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Groceries", entries[0].Title)
	assert.Equal(t, 42.5, entries[0].Amount)
	assert.Equal(t, "2025-06-10", entries[0].Date)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/entries/%d", entries[0].ID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/entries/%d", entries[0].ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEntryValidation(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "carol")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"amount": "10", "currency": "USD", "category": "Food", "type": "expense"}},
		{"zero amount", map[string]any{"title": "x", "amount": "0", "currency": "USD", "category": "Food", "type": "expense"}},
		{"negative amount", map[string]any{"title": "x", "amount": "-5", "currency": "USD", "category": "Food", "type": "expense"}},
		{"too many decimals", map[string]any{"title": "x", "amount": "1.999", "currency": "USD", "category": "Food", "type": "expense"}},
		{"bad type", map[string]any{"title": "x", "amount": "10", "currency": "USD", "category": "Food", "type": "transfer"}},
		{"bad date", map[string]any{"title": "x", "amount": "10", "currency": "USD", "category": "Food", "type": "expense", "date": "June 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/entries", token, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		})
	}
}

func TestEntriesPeriodFilter(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "dave")

	createTestEntry(t, s, token, map[string]any{
		"title": "June lunch", "amount": "10", "currency": "USD",
		"category": "Food", "type": "expense", "date": "2025-06-10",
	})
	createTestEntry(t, s, token, map[string]any{
		"title": "July taxi", "amount": "20", "currency": "USD",
		"category": "Transport", "type": "expense", "date": "2025-07-01",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/entries?period=month&anchor=2025-06-15", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "June lunch", entries[0].Title)

	// case-insensitive search on title or category
	rec = doJSON(t, s, http.MethodGet, "/api/entries?period=year&anchor=2025-06-15&search=TRANSPORT", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "July taxi", entries[0].Title)

	rec = doJSON(t, s, http.MethodGet, "/api/entries?period=week", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryConvertsToBase(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "erin")

	createTestEntry(t, s, token, map[string]any{
		"title": "Salary", "amount": "1000", "currency": "USD",
		"category": "Salary", "type": "income", "date": "2025-06-01",
	})
	// 100 EUR at 0.9 converts to 111.11 USD
	createTestEntry(t, s, token, map[string]any{
		"title": "Hotel", "amount": "100", "currency": "EUR",
		"category": "Other", "type": "expense", "date": "2025-06-02",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 1000, resp.Income, 0.001)
	assert.InDelta(t, 111.111, resp.Expense, 0.001)
	assert.InDelta(t, resp.Income-resp.Expense, resp.Balance, 0.001)
}

func TestSummaryCacheInvalidatedOnCreate(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "frank")

	rec := doJSON(t, s, http.MethodGet, "/api/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var before summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))
	assert.Zero(t, before.Income)

	createTestEntry(t, s, token, map[string]any{
		"title": "Bonus", "amount": "500", "currency": "USD",
		"category": "Bonus", "type": "income", "date": "2025-06-01",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.InDelta(t, 500, after.Income, 0.001)
}

func TestMonthlySeriesHasTwelveBuckets(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "grace")

	createTestEntry(t, s, token, map[string]any{
		"title": "Rent", "amount": "800", "currency": "USD",
		"category": "Bills", "type": "expense", "date": "2025-03-01",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/summary/monthly?year=2025", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var series []monthBucketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 12)
	assert.Equal(t, "Jan", series[0].Label)
	assert.Equal(t, "Dec", series[11].Label)
	assert.InDelta(t, 800, series[2].Expense, 0.001)
	assert.Zero(t, series[3].Expense)
}

func TestCategoryBreakdownSkipsZeroSpend(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "henry")

	createTestEntry(t, s, token, map[string]any{
		"title": "Pizza", "amount": "30", "currency": "USD",
		"category": "Food", "type": "expense", "date": "2025-06-05",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/summary/categories?year=2025&month=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var breakdown []categoryAmountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &breakdown))
	require.Len(t, breakdown, 1)
	assert.Equal(t, "Food", breakdown[0].Name)
	assert.InDelta(t, 30, breakdown[0].Amount, 0.001)
}

func TestBudgetProgressAndAlerts(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "irene")

	rec := doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
		"category": "Food", "year": 2025, "month": 6, "amount": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	createTestEntry(t, s, token, map[string]any{
		"title": "Dinner", "amount": "90", "currency": "USD",
		"category": "Food", "type": "expense", "date": "2025-06-15",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/progress?year=2025&month=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp progressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Progress, "Food")
	assert.InDelta(t, 90, resp.Progress["Food"].Percent, 0.001)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Food", resp.Notifications[0].Category)
	assert.Equal(t, core.SeverityWarning, resp.Notifications[0].Severity)
	assert.Equal(t, "Budget approaching limit for Food", resp.Notifications[0].Message)

	// Second call in the same band is silent.
	rec = doJSON(t, s, http.MethodGet, "/api/budgets/progress?year=2025&month=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)

	// Crossing 100% raises an error-severity alert.
	createTestEntry(t, s, token, map[string]any{
		"title": "Feast", "amount": "20", "currency": "USD",
		"category": "Food", "type": "expense", "date": "2025-06-20",
	})
	rec = doJSON(t, s, http.MethodGet, "/api/budgets/progress?year=2025&month=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, core.SeverityError, resp.Notifications[0].Severity)
	assert.Equal(t, "Budget exceeded for Food!", resp.Notifications[0].Message)
}

func TestBudgetUpsertResetsAlertState(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "judy")

	rec := doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
		"category": "Food", "year": 2025, "month": 6, "amount": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	createTestEntry(t, s, token, map[string]any{
		"title": "Dinner", "amount": "90", "currency": "USD",
		"category": "Food", "type": "expense", "date": "2025-06-15",
	})

	var resp progressResponse
	rec = doJSON(t, s, http.MethodGet, "/api/budgets/progress?year=2025&month=6", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)

	// Re-saving the budget clears de-dup state, so the alert fires again.
	rec = doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
		"category": "Food", "year": 2025, "month": 6, "amount": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/progress?year=2025&month=6", token, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
}

func TestBudgetClearAcceptsZeroForms(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "kara")

	rec := doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
		"category": "Food", "year": 2025, "month": 6, "amount": "300",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Every zero spelling clears the budget, not just the bare "0".
	for _, zero := range []string{"0", "0.00", "0.0", "-0"} {
		rec = doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
			"category": "Food", "year": 2025, "month": 6, "amount": zero,
		})
		require.Equal(t, http.StatusOK, rec.Code, "amount %q: %s", zero, rec.Body.String())
	}

	var budgets []budgetResponse
	rec = doJSON(t, s, http.MethodGet, "/api/budgets?year=2025&month=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &budgets))
	require.Len(t, budgets, 1)
	assert.Zero(t, budgets[0].Amount)

	rec = doJSON(t, s, http.MethodPut, "/api/budgets", token, map[string]any{
		"category": "Food", "year": 2025, "month": 6, "amount": "-5",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUsersAreIsolated(t *testing.T) {
	s := newTestServer(t)
	tokenA := registerUser(t, s, "usera")
	tokenB := registerUser(t, s, "userb")

	createTestEntry(t, s, tokenA, map[string]any{
		"title": "Private", "amount": "10", "currency": "USD",
		"category": "Other", "type": "expense", "date": "2025-06-01",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/entries", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestRatesEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "kate")

	rec := doJSON(t, s, http.MethodGet, "/api/rates", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ratesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USD", resp.Base)
	assert.Equal(t, 0.9, resp.Rates["EUR"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duit/internal/auth"
	"duit/internal/ledger"
	"duit/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "duit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := ledger.NewService(store, nil)
	authm := auth.NewManager("test-secret", time.Hour, store)
	srv := NewServer(":0", store, svc, authm)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// call sends a JSON request and decodes the JSON response body.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func register(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()
	status, out := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":            "Tester",
		"email":           email,
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", out)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts, "user@example.com")

	// Duplicate registration is rejected.
	status, out := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":            "Tester",
		"email":           "user@example.com",
		"password":        "secret123",
		"confirmPassword": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email already registered", out["error"])

	status, out = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "user@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)

	status, out = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", out["error"])

	// An unknown email answers exactly like a wrong password.
	status, out = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", out["error"])

	status, out = call(t, ts, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := out["user"].(map[string]any)
	assert.Equal(t, "user@example.com", user["email"])
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	status, _ := call(t, ts, http.MethodGet, "/api/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, ts, http.MethodGet, "/api/transactions", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAccountAndTransactionFlow(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "flow@example.com")

	status, out := call(t, ts, http.MethodPost, "/api/accounts", token, map[string]any{
		"name":    "Wallet",
		"type":    "cash",
		"balance": 1000.50,
	})
	require.Equal(t, http.StatusCreated, status, "create account: %v", out)
	account := out["account"].(map[string]any)
	accountID := int64(account["id"].(float64))
	assert.Equal(t, 1000.50, account["balance"])
	assert.Equal(t, "💵", account["icon"])

	status, out = call(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "EXPENSE",
		"amount":      200.25,
		"accountId":   accountID,
		"category":    "Makanan",
		"description": "lunch",
	})
	require.Equal(t, http.StatusCreated, status, "create transaction: %v", out)
	tr := out["transaction"].(map[string]any)
	trID := int64(tr["id"].(float64))
	assert.Equal(t, "EXPENSE", tr["type"])
	assert.Equal(t, 200.25, tr["amount"])
	category := tr["category"].(map[string]any)
	assert.Equal(t, "Makanan", category["name"])
	assert.Equal(t, "🍔", category["icon"])
	accountRef := tr["account"].(map[string]any)
	assert.Equal(t, "Wallet", accountRef["name"])

	// The account balance reflects the expense.
	status, out = call(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 800.25, out["account"].(map[string]any)["balance"])

	// Patch the amount down and check the balance again.
	status, out = call(t, ts, http.MethodPut, fmt.Sprintf("/api/transactions/%d", trID), token, map[string]any{
		"amount": 100,
	})
	require.Equal(t, http.StatusOK, status, "update transaction: %v", out)

	status, out = call(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 900.50, out["account"].(map[string]any)["balance"])

	status, out = call(t, ts, http.MethodGet, "/api/transactions/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(100), out["totalExpense"])
	categories := out["categories"].([]any)
	require.Len(t, categories, 1)
	assert.Equal(t, float64(100), categories[0].(map[string]any)["percentage"])

	status, out = call(t, ts, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", trID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "transaction deleted", out["message"])

	status, out = call(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1000.50, out["account"].(map[string]any)["balance"])
}

func TestValidationErrors(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "validate@example.com")

	status, out := call(t, ts, http.MethodPost, "/api/accounts", token, map[string]any{
		"name": "Wallet",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name and type are required", out["error"])

	status, _ = call(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":     "expense",
		"amount":   10,
		"category": "Makanan",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, out = call(t, ts, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":      "transfer",
		"amount":    10,
		"accountId": 1,
		"category":  "Makanan",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid transaction type", out["error"])
}

func TestCrossUserReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice@example.com")
	bob := register(t, ts, "bob@example.com")

	status, out := call(t, ts, http.MethodPost, "/api/accounts", alice, map[string]any{
		"name": "Savings", "type": "bank",
	})
	require.Equal(t, http.StatusCreated, status)
	accountID := int64(out["account"].(map[string]any)["id"].(float64))

	status, out = call(t, ts, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", out["error"])

	status, _ = call(t, ts, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", accountID), bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	status, out := call(t, ts, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", out["error"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, out := call(t, ts, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

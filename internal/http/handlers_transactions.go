package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"duit/internal/auth"
	"duit/internal/core"
	"duit/internal/ledger"
)

type categoryRefJSON struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type accountRefJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type transactionJSON struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Category    categoryRefJSON `json:"category"`
	Account     accountRefJSON  `json:"account"`
	Date        time.Time       `json:"date"`
}

func newTransactionJSON(v core.TransactionView) transactionJSON {
	return transactionJSON{
		ID:          v.ID,
		Type:        strings.ToUpper(string(v.Type)),
		Amount:      v.Amount.Float64(),
		Description: v.Note,
		Category: categoryRefJSON{
			Name: v.Category,
			Icon: core.CategoryIcon(v.Category),
		},
		Account: accountRefJSON{
			ID:   v.AccountID,
			Name: v.AccountName,
			Icon: core.AccountIcon(v.AccountType),
		},
		Date: v.CreatedAt,
	}
}

// parseDate accepts RFC3339 timestamps and bare dates; backdated entries from
// the client arrive in either form.
func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	filter, ok := parseTransactionFilter(w, r)
	if !ok {
		return
	}

	items, err := s.ledger.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(items))
	for _, v := range items {
		out = append(out, newTransactionJSON(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

// parseTransactionFilter reads the list query parameters. It writes a 400 and
// returns ok=false when a parameter is malformed.
func parseTransactionFilter(w http.ResponseWriter, r *http.Request) (core.TransactionFilter, bool) {
	var filter core.TransactionFilter
	query := r.URL.Query()

	start, end, ok := parseDateRange(w, query.Get("startDate"), query.Get("endDate"))
	if !ok {
		return filter, false
	}
	filter.Start, filter.End = start, end

	if v := strings.TrimSpace(query.Get("type")); v != "" {
		typ, err := core.ParseTransactionType(v)
		if err != nil {
			badRequest(w, "invalid type filter")
			return filter, false
		}
		filter.Type = &typ
	}
	if v := strings.TrimSpace(query.Get("category")); v != "" {
		filter.Category = &v
	}
	if v := strings.TrimSpace(query.Get("accountId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(w, "invalid accountId filter")
			return filter, false
		}
		filter.AccountID = &id
	}

	return filter, true
}

// parseDateRange parses the startDate/endDate pair. Both must be present for
// the range to apply; a bare endDate date is made inclusive of its whole day.
func parseDateRange(w http.ResponseWriter, startStr, endStr string) (*time.Time, *time.Time, bool) {
	if startStr == "" || endStr == "" {
		return nil, nil, true
	}
	start, _ := parseDate(startStr)
	end, endIsBareDate := parseDate(endStr)
	if start.IsZero() || end.IsZero() {
		badRequest(w, "invalid date range")
		return nil, nil, false
	}
	if endIsBareDate {
		end = end.Add(24*time.Hour - time.Second)
	}
	return &start, &end, true
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	v, err := s.ledger.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": newTransactionJSON(v)})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req struct {
		Type        string       `json:"type"`
		Amount      *json.Number `json:"amount"`
		AccountID   *int64       `json:"accountId"`
		Category    string       `json:"category"`
		Description string       `json:"description"`
		Date        *string      `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Type == "" || req.Amount == nil || req.AccountID == nil || strings.TrimSpace(req.Category) == "" {
		badRequest(w, "type, amount, accountId and category are required")
		return
	}

	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := core.ParseAmountToCents(req.Amount.String())
	if err != nil {
		writeError(w, r, err)
		return
	}

	params := ledger.CreateParams{
		Type:      typ,
		Amount:    amount,
		AccountID: *req.AccountID,
		Category:  req.Category,
		Note:      req.Description,
	}
	if req.Date != nil {
		date, _ := parseDate(*req.Date)
		if date.IsZero() {
			badRequest(w, "invalid date")
			return
		}
		params.Date = date
	}

	v, err := s.ledger.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "transaction created",
		"transaction": newTransactionJSON(v),
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Type        *string      `json:"type"`
		Amount      *json.Number `json:"amount"`
		AccountID   *int64       `json:"accountId"`
		Category    *string      `json:"category"`
		Description *string      `json:"description"`
		Date        *string      `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	patch := core.TransactionPatch{
		AccountID: req.AccountID,
		Category:  req.Category,
		Note:      req.Description,
	}
	if req.Type != nil {
		typ, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Type = &typ
	}
	if req.Amount != nil {
		amount, err := core.ParseAmountToCents(req.Amount.String())
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, _ := parseDate(*req.Date)
		if date.IsZero() {
			badRequest(w, "invalid date")
			return
		}
		patch.Date = &date
	}

	v, err := s.ledger.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "transaction updated",
		"transaction": newTransactionJSON(v),
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

func (s *Server) handleTransactionStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	query := r.URL.Query()
	start, end, ok := parseDateRange(w, query.Get("startDate"), query.Get("endDate"))
	if !ok {
		return
	}

	stats, err := s.ledger.Stats(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	categories := make([]map[string]any, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		categories = append(categories, map[string]any{
			"name":       c.Name,
			"icon":       c.Icon,
			"amount":     c.Amount.Float64(),
			"count":      c.Count,
			"percentage": c.Percentage,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalIncome":  stats.TotalIncome.Float64(),
		"totalExpense": stats.TotalExpense.Float64(),
		"totalBalance": stats.TotalBalance.Float64(),
		"categories":   categories,
	})
}

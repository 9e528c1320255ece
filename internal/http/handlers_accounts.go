package http

import (
	"encoding/json"
	"net/http"
	"time"

	"duit/internal/auth"
	"duit/internal/core"
)

type accountJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Icon      string    `json:"icon"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

func newAccountJSON(a core.Account) accountJSON {
	return accountJSON{
		ID:        a.ID,
		Name:      a.Name,
		Type:      a.Type,
		Icon:      core.AccountIcon(a.Type),
		Balance:   a.Balance.Float64(),
		CreatedAt: a.CreatedAt,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	accounts, err := s.store.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.store.GetAccount(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": newAccountJSON(account)})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req struct {
		Name    string       `json:"name"`
		Type    string       `json:"type"`
		Balance *json.Number `json:"balance"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Type == "" {
		badRequest(w, "name and type are required")
		return
	}

	var balance core.Money
	if req.Balance != nil {
		var err error
		if balance, err = core.ParseBalanceToCents(req.Balance.String()); err != nil {
			badRequest(w, "invalid balance")
			return
		}
	}

	account, err := s.store.CreateAccount(r.Context(), userID, req.Name, req.Type, balance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "account created",
		"account": newAccountJSON(account),
	})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req struct {
		Name    *string      `json:"name"`
		Type    *string      `json:"type"`
		Balance *json.Number `json:"balance"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	patch := core.AccountPatch{Name: req.Name, Type: req.Type}
	if req.Balance != nil {
		// A patched balance is a raw administrative overwrite; it does not go
		// through the reconciliation protocol.
		balance, err := core.ParseBalanceToCents(req.Balance.String())
		if err != nil {
			badRequest(w, "invalid balance")
			return
		}
		patch.Balance = &balance
	}

	account, err := s.store.UpdateAccount(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "account updated",
		"account": newAccountJSON(account),
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.DeleteAccount(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// Package http exposes the JSON REST API consumed by the mobile client.
package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"duit/internal/auth"
	"duit/internal/ledger"
	"duit/internal/storage"
)

type Server struct {
	http.Server
	store  *storage.Store
	ledger *ledger.Service
	auth   *auth.Manager
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, store *storage.Store, svc *ledger.Service, authm *auth.Manager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:  store,
		ledger: svc,
		auth:   authm,
	}

	open := s.withRequestLog
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withRequestLog(s.auth.Middleware(h))
	}

	mux.HandleFunc("GET /api/health", handleHealth)

	mux.HandleFunc("POST /api/auth/register", open(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", open(s.handleLogin))
	mux.HandleFunc("GET /api/auth/profile", protected(s.handleProfile))

	mux.HandleFunc("GET /api/accounts", protected(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", protected(s.handleGetAccount))
	mux.HandleFunc("POST /api/accounts", protected(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", protected(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", protected(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/transactions", protected(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/stats", protected(s.handleTransactionStats))
	mux.HandleFunc("GET /api/transactions/{id}", protected(s.handleGetTransaction))
	mux.HandleFunc("POST /api/transactions", protected(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", protected(s.handleDeleteTransaction))

	mux.HandleFunc("/", open(handleRouteNotFound))

	return s
}

// withRequestLog adds security headers, a request id, and start/completion
// logging to a handler.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()

		slog.InfoContext(r.Context(), "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleRouteNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
}

// Package auth issues and verifies the bearer tokens the API authenticates
// with, and hashes user passwords.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"duit/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

// UserSource checks that the user a token refers to still exists.
type UserSource interface {
	GetUserByID(ctx context.Context, id int64) (storage.User, error)
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	users  UserSource
}

func NewManager(secret string, ttl time.Duration, users UserSource) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		users:  users,
	}
}

// IssueToken signs a token carrying the user id.
func (m *Manager) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"iat":    now.Unix(),
		"exp":    now.Add(m.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parseToken verifies the signature and expiry and returns the user id.
func (m *Manager) parseToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	raw, ok := claims["userId"].(float64)
	if !ok {
		return 0, errors.New("userId claim missing")
	}
	return int64(raw), nil
}

// Middleware rejects requests without a valid bearer token, confirms the user
// still exists, and puts the user id in the request context. Absence of a
// credential and invalidity of a credential answer identically.
func (m *Manager) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing credential")
			return
		}

		userID, err := m.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w, "invalid or expired credential")
			return
		}

		if _, err := m.users.GetUserByID(r.Context(), userID); err != nil {
			// A token for a deleted user is as invalid as a forged one.
			slog.WarnContext(r.Context(), "Token for unknown user", "user_id", userID)
			unauthorized(w, "invalid or expired credential")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	}
}

// UserID returns the authenticated user id stored by Middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

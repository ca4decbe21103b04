// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/auth"
	"github.com/danielhkuo/courtside/discord"
	"github.com/danielhkuo/courtside/models"
)

// APIKeyHeader carries the JSON API key.
const APIKeyHeader = "X-API-Key"

type contextKey string

const clientKey contextKey = "api_client"

// statusRecorder remembers the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Info("request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", GetClientIP(r),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		duration := time.Since(start)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// WriteError maps a domain error to its status and writes it. Details of
// infrastructure failures are logged, not returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	kind := apperr.KindOf(err)
	if kind == apperr.KindInfrastructure {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	JSONResponse(w, status, models.ErrorResponse{
		Error:    http.StatusText(status),
		Message:  apperr.UserMessage(err),
		Kind:     string(kind),
		Metadata: apperr.MetadataOf(err),
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey rejects requests without a valid X-API-Key and stores the
// client name in the request context.
func RequireAPIKey(salt string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			ErrorResponse(w, http.StatusUnauthorized, "X-API-Key header required")
			return
		}
		client, err := auth.ValidateAPIKey(key, salt)
		if err != nil {
			slog.Warn("api key rejected", "path", r.URL.Path, "remote", GetClientIP(r), "error", err)
			ErrorResponse(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), clientKey, client)))
	}
}

// ClientFrom returns the API client name set by RequireAPIKey.
func ClientFrom(ctx context.Context) string {
	client, _ := ctx.Value(clientKey).(string)
	return client
}

// VerifyDiscord rejects interaction requests whose ed25519 signature does
// not verify against key.
func VerifyDiscord(key ed25519.PublicKey, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !discord.VerifyRequest(r, key) {
			slog.Warn("interaction signature rejected", "remote", GetClientIP(r))
			ErrorResponse(w, http.StatusUnauthorized, "invalid request signature")
			return
		}
		next(w, r)
	}
}

// CORS middleware allows cross-origin reads of the JSON API
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+APIKeyHeader)

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in chain
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' || xff[i] == ' ' {
				return xff[:i]
			}
		}
		return xff
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Strip port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

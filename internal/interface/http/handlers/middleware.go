package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// APIKeyAuth provides API key authentication for the admin endpoints.
type APIKeyAuth struct {
	headerName string
	validKeys  map[string]bool
	mu         sync.RWMutex
}

// NewAPIKeyAuth creates a new API key authenticator.
func NewAPIKeyAuth(headerName string, keys []string) *APIKeyAuth {
	validKeys := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			validKeys[key] = true
		}
	}

	return &APIKeyAuth{
		headerName: headerName,
		validKeys:  validKeys,
	}
}

// AddKey adds a valid API key.
func (a *APIKeyAuth) AddKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.validKeys[key] = true
}

// RemoveKey removes an API key.
func (a *APIKeyAuth) RemoveKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.validKeys, key)
}

// IsValid checks if an API key is valid.
func (a *APIKeyAuth) IsValid(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validKeys[key]
}

// Middleware returns an HTTP middleware that checks for valid API keys.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.headerName)

		// Also check Authorization header with Bearer scheme
		if key == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing_api_key", "API key is required")
			return
		}

		if !a.IsValid(key) {
			writeAuthError(w, http.StatusForbidden, "invalid_api_key", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeAuthError writes an auth failure without depending on the parent package.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMEOUT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// TimeoutMiddleware adds a timeout to request contexts.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})

			go func() {
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
				// Request completed normally
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					writeAuthError(w, http.StatusGatewayTimeout, "timeout", "Request timeout exceeded")
				}
			}
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SECURITY HEADERS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Referrer policy
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content security policy for API
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SIZE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestSizeLimitMiddleware limits the size of request bodies.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeAuthError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
				return
			}

			// Also limit the actual body reading
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// MiddlewareFunc is a function that wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain chains multiple middleware functions.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ChainHandler chains middleware and wraps a final handler.
func ChainHandler(handler http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	return Chain(middlewares...)(handler)
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/logging"
)

const (
	tokenField   = "authToken"
	maxPeekBytes = 1 << 20
)

// TokenVerifier resolves an access token into the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid access token and stores the
// verified identity on the request context. The token is read from the
// Authorization bearer header, the authToken header, the authToken query
// parameter or an authToken field of a JSON body, in that order.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, err := extractToken(r)
			if err != nil {
				logger.Warn("read auth token", "error", err)
			}
			if token == "" {
				writeUnauthorized(w, "authentication token is missing")
				return
			}

			id, err := verifier.Verify(ctx, token)
			if err != nil {
				message := "invalid or expired authentication token"
				if errors.Is(err, auth.ErrExpiredToken) {
					message = "authentication token has expired"
				}
				logger.Warn("rejected auth token", "error", err)
				writeUnauthorized(w, message)
				return
			}

			ctx = auth.WithIdentity(ctx, id)
			ctx = logging.WithLogger(ctx, logger.With("userId", id.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value), nil
		}
	}
	if token := strings.TrimSpace(r.Header.Get(tokenField)); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(r.URL.Query().Get(tokenField)); token != "" {
		return token, nil
	}
	return tokenFromBody(r)
}

// tokenFromBody peeks at a JSON body and restores it for the next handler.
func tokenFromBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "application/json" {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	var token string
	if raw, ok := payload[tokenField]; ok {
		_ = json.Unmarshal(raw, &token)
	}
	return strings.TrimSpace(token), nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   true,
		"message": message,
		"status":  http.StatusUnauthorized,
		"data":    nil,
	})
}

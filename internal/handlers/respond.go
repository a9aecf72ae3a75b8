package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/todoshare/backend/internal/apperr"
	"github.com/todoshare/backend/internal/auth"
	"github.com/todoshare/backend/internal/logging"
)

const maxBodyBytes = 1 << 20

// envelope is the response shape of every API route.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Data    any    `json:"data"`
}

func respondOK(ctx context.Context, w http.ResponseWriter, message string, data any) {
	respondJSON(ctx, w, http.StatusOK, envelope{Message: message, Status: http.StatusOK, Data: data})
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	if kind == apperr.KindInternal {
		logging.FromContext(ctx).Error("request failed", "error", err)
	}
	respondJSON(ctx, w, status, envelope{Error: true, Message: apperr.MessageOf(err), Status: status})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logging.FromContext(ctx).Warn("request returned client error", "status", status, "message", payload.Message)
	}
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusNotFound, envelope{Error: true, Message: "route not found", Status: http.StatusNotFound})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusMethodNotAllowed, envelope{Error: true, Message: "method not allowed", Status: http.StatusMethodNotAllowed})
}

// decodeJSON reads a JSON request body into dst. Unknown fields such as
// authToken are ignored.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

func pathParam(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func callerFrom(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// stringList accepts either a JSON array of strings or a comma separated
// string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*l = nil
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

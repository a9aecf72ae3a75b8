package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfAndStatus(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
	}{
		{"validation", Validation("bad"), KindValidation, http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), KindUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), KindForbidden, http.StatusForbidden},
		{"notFound", NotFound("gone"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("dup"), KindConflict, http.StatusConflict},
		{"internal", Internal("boom", errors.New("db down")), KindInternal, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("send: %w", Conflict("dup")), KindConflict, http.StatusConflict},
		{"foreign", errors.New("plain"), KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind := KindOf(tc.err)
			if kind != tc.wantKind {
				t.Fatalf("expected kind %s got %s", tc.wantKind, kind)
			}
			if kind.Status() != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, kind.Status())
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("accept: %w", NotFound("no pending friend request"))
	if !errors.Is(err, NotFound("")) {
		t.Fatal("expected errors.Is to match by kind")
	}
	if errors.Is(err, Conflict("")) {
		t.Fatal("expected kinds to differ")
	}
}

func TestMessageOfHidesCause(t *testing.T) {
	err := Internal("failed to load user", errors.New("connection refused"))
	if got := MessageOf(err); got != "failed to load user" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := MessageOf(errors.New("raw")); got != "internal server error" {
		t.Fatalf("unexpected message %q", got)
	}
}

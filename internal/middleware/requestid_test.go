package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func serveWithRequestID(req *http.Request) (*httptest.ResponseRecorder, string) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen
}

func TestRequestIDGenerated(t *testing.T) {
	w, seen := serveWithRequestID(httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid in context, got %q", seen)
	}
	if got := w.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("header %q does not match context %q", got, seen)
	}
}

func TestRequestIDReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w, seen := serveWithRequestID(req)
	if seen != "abc-123" || w.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("expected incoming id to be reused, got %q", seen)
	}
}

func TestRequestIDRejectsJunk(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("a", 200)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, bad)
		_, seen := serveWithRequestID(req)
		if seen == bad {
			t.Fatalf("junk id %q should have been replaced", bad)
		}
		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("expected generated uuid, got %q", seen)
		}
	}
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	if got := RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Fatalf("got %q", got)
	}
}

package requestid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddleware_GeneratesID(t *testing.T) {
	var got string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestid.FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got == "" {
		t.Fatal("expected a generated request id")
	}
	if rec.Header().Get(requestid.Header) != got {
		t.Errorf("response header = %q, want %q", rec.Header().Get(requestid.Header), got)
	}
}

func TestMiddleware_ReusesClientID(t *testing.T) {
	var got string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestMiddleware_ReplacesOversizedID(t *testing.T) {
	var got string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestid.Header, strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(got) > 64 || got == "" {
		t.Errorf("request id %q should have been regenerated", got)
	}
}

func TestLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		h := requestid.Middleware(requestid.Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})))

		req := auth.WithTestIdentity(httptest.NewRequest(http.MethodGet, "/api/groups", nil), auth.Identity{Subject: "ext|a"})
		h.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: got %d log entries, want 1", tt.status, len(entries))
		}
		e := entries[0]
		if e.Level != tt.level {
			t.Errorf("status %d: level = %v, want %v", tt.status, e.Level, tt.level)
		}
		ctx := e.ContextMap()
		if ctx["request_id"] == "" {
			t.Error("request_id missing from log entry")
		}
		if ctx["subject"] != "ext|a" {
			t.Errorf("subject = %v, want ext|a", ctx["subject"])
		}
	}
}

package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/studysync/internal/app/features/errors"
	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, uierrors.CodeUnauthorized},
		{"not found", fmt.Errorf("group: %w", service.ErrNotFound), http.StatusNotFound, uierrors.CodeNotFound},
		{"not a member", service.ErrNotAMember, http.StatusForbidden, uierrors.CodeForbidden},
		{"validation", service.ErrValidation, http.StatusBadRequest, uierrors.CodeBadRequest},
		{"conflict", fmt.Errorf("email taken: %w", service.ErrConflict), http.StatusConflict, uierrors.CodeConflict},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, uierrors.CodeTimeout},
		{"unexpected", errors.New("socket closed"), http.StatusInternalServerError, uierrors.CodeServerError},
	}

	el := uierrors.NewErrorLogger(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			el.HandleServiceError(rec, httptest.NewRequest(http.MethodPost, "/api/groups", nil), "create group", tt.err)
			rec.AssertStatus(t, tt.status)
			if got := rec.ErrorCode(); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestHandleServiceError_HidesInternalDetail(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := testutil.NewRecorder()
	el.HandleServiceError(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil), "list groups", errors.New("mongo: connection refused"))

	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("internal error leaked into body: %s", rec.Body.String())
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Errorf("expected one error log entry, got %d", logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	}
}

func TestFallbackHandlers(t *testing.T) {
	rec := testutil.NewRecorder()
	uierrors.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	uierrors.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/groups", nil))
	rec.AssertStatus(t, http.StatusMethodNotAllowed)
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}

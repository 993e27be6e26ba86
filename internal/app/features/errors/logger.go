// internal/app/features/errors/logger.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/studysync/internal/app/service"
	"github.com/dalemusser/studysync/internal/app/system/auth"
	"github.com/dalemusser/studysync/internal/app/system/requestid"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures with request context and writes the
// matching JSON error response.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger. A nil logger discards output.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

func (l *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := requestid.FromContext(r.Context()); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if ident, ok := auth.CurrentIdentity(r); ok {
		fs = append(fs, zap.String("subject", ident.Subject))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogServerError logs msg at error level and answers 500 with userMsg.
func (l *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	l.Log.Error(msg, l.fields(r, err)...)
	RenderServerError(w, r, userMsg)
}

// LogBadRequest logs msg at warn level and answers 400 with userMsg.
func (l *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	l.Log.Warn(msg, l.fields(r, err)...)
	RenderBadRequest(w, r, userMsg)
}

// HandleServiceError maps an error returned by the service layer onto the
// HTTP taxonomy. Expected failures are logged at debug; anything else is a
// server error.
func (l *ErrorLogger) HandleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		l.Log.Debug(op+": unauthorized", l.fields(r, err)...)
		RenderUnauthorized(w, r, "")
	case errors.Is(err, service.ErrNotFound):
		l.Log.Debug(op+": not found", l.fields(r, err)...)
		RenderNotFound(w, r)
	case errors.Is(err, service.ErrNotAMember):
		l.Log.Debug(op+": not a member", l.fields(r, err)...)
		RenderForbidden(w, r, "You must be a member of this group.")
	case errors.Is(err, service.ErrValidation):
		l.Log.Debug(op+": invalid input", l.fields(r, err)...)
		RenderBadRequest(w, r, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Log.Debug(op+": conflict", l.fields(r, err)...)
		RenderConflict(w, r, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		l.Log.Warn(op+": timed out", l.fields(r, err)...)
		RenderTimeout(w, r)
	default:
		l.LogServerError(w, r, op+" failed", err, "Something went wrong. Please try again.")
	}
}

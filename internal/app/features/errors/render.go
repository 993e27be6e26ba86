// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/studysync/internal/app/system/jsonio"
)

// Error codes carried in the "code" field of every error body.
const (
	CodeBadRequest       = "invalid"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeConflict         = "conflict"
	CodeTimeout          = "timeout"
	CodeServerError      = "server_error"
)

// RenderUnauthorized answers 401. An empty msg uses a default.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Please sign in to continue."
	}
	jsonio.WriteError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}

// RenderForbidden answers 403 with msg.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	jsonio.WriteError(w, http.StatusForbidden, CodeForbidden, msg)
}

// RenderNotFound answers 404.
func RenderNotFound(w http.ResponseWriter, r *http.Request) {
	jsonio.WriteError(w, http.StatusNotFound, CodeNotFound, "The requested resource was not found.")
}

// RenderBadRequest answers 400 with msg.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "The request was invalid."
	}
	jsonio.WriteError(w, http.StatusBadRequest, CodeBadRequest, msg)
}

// RenderConflict answers 409 with msg.
func RenderConflict(w http.ResponseWriter, r *http.Request, msg string) {
	jsonio.WriteError(w, http.StatusConflict, CodeConflict, msg)
}

// RenderTimeout answers 504.
func RenderTimeout(w http.ResponseWriter, r *http.Request) {
	jsonio.WriteError(w, http.StatusGatewayTimeout, CodeTimeout, "The request took too long. Please try again.")
}

// RenderServerError answers 500 with msg. Internal details never reach the body.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	jsonio.WriteError(w, http.StatusInternalServerError, CodeServerError, msg)
}

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r)
}

// MethodNotAllowed is the router's fallback for known paths with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonio.WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed.")
}

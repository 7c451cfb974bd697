package httpapi

import (
	"encoding/json"
	"net/http"
)

// Stable error codes returned by the API.
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeForbidden             = "FORBIDDEN"
	CodeInvalidTenantOverride = "INVALID_TENANT_OVERRIDE"
	CodeTenantNotFound        = "TENANT_NOT_FOUND"
	CodeTenantInactive        = "TENANT_INACTIVE"
	CodeTenantScopeRequired   = "TENANT_SCOPE_REQUIRED"
	CodeUnknownTable          = "UNKNOWN_TABLE"
	CodeBootstrapClosed       = "BOOTSTRAP_CLOSED"
	CodeEmailTaken            = "EMAIL_TAKEN"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeRateLimited           = "RATE_LIMITED"
	CodeNotFound              = "NOT_FOUND"
	CodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// NotFound and MethodNotAllowed keep unmatched routes inside the JSON envelope.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusNotFound, CodeNotFound, "route not found", map[string]string{"path": r.URL.Path})
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
	})
}

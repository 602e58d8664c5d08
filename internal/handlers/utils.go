package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/userdesk/apiserver/types"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// ErrorResponse is the error payload shared by all endpoints.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func principalFromContext(ctx context.Context) (types.Principal, error) {
	principal, ok := ctx.Value(contextPrincipalKey).(types.Principal)
	if !ok || principal.UserID < 1 {
		return types.Principal{}, errors.New("missing principal")
	}
	return principal, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeErrorMessage(w http.ResponseWriter, status int, errText, message string) {
	writeJSON(w, status, ErrorResponse{Error: errText, Message: message})
}

// Error texts for absent payload attributes. The wording is fixed per
// verb, not derived from the count: the id-only lookups (GET, DELETE)
// use the singular, the full-payload verbs (POST, PUT) use the plural
// even when a single field is absent.
const (
	missingAttributeError  = "Missing required attribute"
	missingAttributesError = "Missing required attributes"
)

// writeMissing emits the 400 body listing absent payload attributes.
func writeMissing(w http.ResponseWriter, errText string, missing []string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errText, Missing: missing})
}

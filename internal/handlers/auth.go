package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/store"
)

var (
	errNoCredential = errors.New("no credential supplied")
	errEmptyToken   = errors.New("empty token")
)

// RequireAuth enforces bearer-token authentication and injects the
// resolved principal into the request context. A request carrying no
// bearer header gets the challenge body; a request that presents the
// bearer scheme with an empty or unresolvable token gets the failure
// body. All are 401.
func RequireAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				if errors.Is(err, errEmptyToken) {
					writeErrorMessage(w, http.StatusUnauthorized,
						"Authentication failed",
						"No API token provided")
					return
				}
				writeErrorMessage(w, http.StatusUnauthorized,
					"Authentication required",
					"Bearer token is required to access this resource")
				return
			}

			principal, err := tokens.Resolve(r.Context(), raw)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeErrorMessage(w, http.StatusUnauthorized,
						"Authentication failed",
						"Invalid or expired API token")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), contextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential after the "Bearer " prefix. A
// header that presents the scheme but no token is a supported request
// that fails, not a missing credential.
func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errNoCredential
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

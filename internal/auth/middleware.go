package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
)

// contextKey is unexported so no other package can read or shadow the
// values stored by this package.
type contextKey string

const userIDKey contextKey = "userID"

// UserLookup is the slice of the user repository RequireAdmin needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth enforces a bearer token on protected routes.
//
// It reads "Authorization: Bearer <jwt>", validates the token, and stores the
// user ID in the request context. A missing, malformed, or expired token
// stops the chain with 401 Unauthorized.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				msg := "Could not validate credentials"
				if errors.Is(err, ErrTokenExpired) {
					msg = "Token has expired"
				}
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", msg)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets the request through only if the authenticated user has
// is_admin set. It must be mounted after RequireAuth.
//
// A token whose user no longer exists is treated as unauthenticated.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			switch {
			case errors.Is(err, apperror.ErrNotFound):
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
				return
			case err != nil:
				slog.Error("admin check failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			case !user.IsAdmin:
				writeAuthError(w, http.StatusForbidden, "forbidden", "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user's ID.
// Returns (0, false) if RequireAuth did not run for this request.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// WithUserID returns a copy of ctx carrying userID. Handler tests use it to
// skip the token round trip.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func extractUserID(r *http.Request, tokens *TokenService) (int64, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, fmt.Errorf("auth: missing bearer token")
	}
	return tokens.Validate(strings.TrimSpace(token))
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q,"message":%q}`+"\n", kind, message)
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/handlers/userctx"
	"github.com/nkiryanov/realestate/internal/models"
)

type authService interface {
	// Return user the access token was issued for
	ResolveCurrentUser(ctx context.Context, access string) (models.User, error)

	// Return the user if it has the role, apperrors.ErrInsufficientRole otherwise
	RequireRole(user models.User, role models.Role) (models.User, error)
}

// Authenticate request by bearer access token and put the user to request context
// Unexpected errors of the auth service are logged, the client gets no details
func AuthMiddleware(as authService, l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.ServiceError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			user, err := as.ResolveCurrentUser(r.Context(), token)
			if err != nil {
				var appErr *apperrors.Error
				if !errors.As(err, &appErr) {
					l.Error("Failed to resolve current user", "error", err)
				}
				w.Header().Set("WWW-Authenticate", "Bearer")
				render.AppError(w, err)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Allow request only for users with the role
// Has to be wrapped by AuthMiddleware
func RoleMiddleware(as authService, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			if _, err := as.RequireRole(user, role); err != nil {
				render.AppError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// principalFrom returns the authenticated user stored by AuthMiddleware.
func principalFrom(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(principalKey).(*model.User)
	return user, ok
}

// AuthMiddleware validates the Bearer token, resolves the user behind it and
// injects the principal into the request context. Tokens of deleted or
// deactivated users are rejected even before expiry.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "encabezado Authorization requerido")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "formato de encabezado Authorization inválido")
				return
			}

			claims, err := authService.ParseToken(parts[1])
			if err != nil {
				logger.WithError(err).Warn("Token rejected")
				respondError(w, http.StatusUnauthorized, "token inválido o expirado")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "token inválido o expirado")
				return
			}

			user, err := userService.GetActiveUser(r.Context(), userID)
			if err != nil {
				logger.WithField("user_id", userID).Warn("Token of missing or inactive user")
				respondError(w, http.StatusUnauthorized, "usuario no encontrado o inactivo")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles gates a route to the given roles. Runs after AuthMiddleware.
func RequireRoles(logger *logrus.Logger, roles ...string) mux.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := principalFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "no autenticado")
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				logger.WithFields(logrus.Fields{
					"user_id": user.ID,
					"role":    user.Role,
					"path":    r.URL.Path,
				}).Warn("Role denied")
				respondError(w, http.StatusForbidden, "no tiene permisos para esta operación")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

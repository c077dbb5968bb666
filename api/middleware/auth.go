package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eventyard/eventyard-backend/api/responses"
	pkgauth "github.com/eventyard/eventyard-backend/pkg/auth"
	"github.com/eventyard/eventyard-backend/pkg/config"
	"github.com/eventyard/eventyard-backend/pkg/db/models"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
)

// UserResolver maps a verified token email to an account. The token is proof
// of identity; the database row is the source of truth for the role.
type UserResolver interface {
	ResolveByEmail(ctx context.Context, email string) (*models.User, error)
}

// Auth validates a bearer token, resolves the account behind its email claim,
// and seeds the request context with the resolved identity.
func Auth(cfg config.JWTConfig, resolver UserResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if resolver == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "user resolver unavailable"))
				return
			}

			user, err := resolver.ResolveByEmail(r.Context(), claims.Email)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithIdentity(r.Context(), user.ID, user.Email, user.Role)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    user.ID.String(),
					"actor_role": string(user.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

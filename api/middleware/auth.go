package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/univlive/univlive-backend/api/responses"
	pkgAuth "github.com/univlive/univlive-backend/pkg/auth"
	"github.com/univlive/univlive-backend/pkg/auth/session"
	"github.com/univlive/univlive-backend/pkg/config"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		deny := func(w http.ResponseWriter, r *http.Request, err error) {
			responses.WriteError(r.Context(), logg, w, err)
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				deny(w, r, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if sessions != nil {
				alive, err := sessions.HasSession(r.Context(), claims.ID)
				if err != nil {
					deny(w, r, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !alive {
					deny(w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if claims.EducatorID != nil {
				ctx = context.WithValue(ctx, ctxEducatorID, claims.EducatorID.String())
			}
			ctx = annotateActor(ctx, logg, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken strips an optional case-insensitive "Bearer " prefix.
func bearerToken(header string) string {
	token := strings.TrimSpace(header)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func annotateActor(ctx context.Context, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims) context.Context {
	if logg == nil {
		return ctx
	}
	fields := map[string]any{
		"user_id":    claims.UserID.String(),
		"actor_role": string(claims.Role),
	}
	if claims.EducatorID != nil {
		fields["educator_id"] = claims.EducatorID.String()
	}
	return logg.WithFields(ctx, fields)
}

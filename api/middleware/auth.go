package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lekhapadi/lekhapadi-backend/api/responses"
	pkgAuth "github.com/lekhapadi/lekhapadi-backend/pkg/auth"
	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	pkgerrors "github.com/lekhapadi/lekhapadi-backend/pkg/errors"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the caller email.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
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

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserEmail, claims.Email)
			if claims.ID != "" {
				ctx = context.WithValue(ctx, ctxTokenID, claims.ID)
			}
			if logg != nil {
				ctx = logg.WithUserEmail(ctx, claims.Email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/pkg/httpmiddleware"
)

// AuthConfig configures bearer token verification. Tokens are HS256 JWTs
// issued by the identity provider; the subject is the user ID.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Authenticate resolves the caller from "Authorization: Bearer <jwt>" and
// stores it with identity.WithUser. A missing or invalid token leaves the
// request anonymous; write operations reject it later.
func Authenticate(cfg AuthConfig) httpmiddleware.Middleware {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)
	keyFunc := func(*jwt.Token) (any, error) { return key, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok || len(key) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil || claims.Subject == "" {
				zctx.From(r.Context()).Debug("Rejected bearer token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := identity.WithUser(r.Context(), identity.UserID(claims.Subject))
			ctx = zctx.With(ctx, zap.String("user", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/urbanshoes/storefront/api/responses"
	"github.com/urbanshoes/storefront/pkg/config"
	pkgerrors "github.com/urbanshoes/storefront/pkg/errors"
	"github.com/urbanshoes/storefront/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

// Session resolves the cart session for a request and seeds the context with
// it. A bearer token from the identity provider pins the session to its
// subject; otherwise the X-Session-Id header names a guest session, and a
// request carrying neither gets a fresh one echoed back in the response.
func Session(cfg config.AuthConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := sessionFromBearer(cfg, r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			if sessionID == "" {
				sessionID = strings.TrimSpace(r.Header.Get(sessionIDHeader))
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			w.Header().Set(sessionIDHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromBearer extracts the token subject as the session id. An absent
// header is not an error; a malformed or unverifiable token is.
func sessionFromBearer(cfg config.AuthConfig, r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", nil
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	if cfg.JWTSecret == "" {
		// Verification disabled; bearer tokens are ignored rather than
		// trusted.
		return "", nil
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.Subject == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing token subject")
	}
	return claims.Subject, nil
}

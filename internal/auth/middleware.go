package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-admin/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/quiz-admin/pkg/http/errors"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	claimsKey
)

// Verifier checks a bearer token. *jwt.Manager satisfies it.
type Verifier interface {
	Validate(token string) (*jwt.Claims, error)
}

// RequireBearer rejects requests without a bearer token and stores the token
// in the request context for forwarding upstream. When verifier is nil the
// token is only checked for presence.
func RequireBearer(verifier Verifier, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			if verifier != nil {
				claims, err := verifier.Validate(token)
				if err != nil {
					logger.Warn().Err(err).Msg("token validation failed")
					httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
					return
				}
				ctx = context.WithValue(ctx, claimsKey, claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromContext returns the bearer token stored by RequireBearer.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// ClaimsFromContext returns verified claims, if a verifier ran.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// Actor names the caller for audit records: the token subject when verified.
func Actor(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

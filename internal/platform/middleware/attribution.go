package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"consentledger/pkg/requestcontext"
)

// Attribution extracts the acting user's identifier from the bearer token for
// audit attribution. Token verification happens upstream at the gateway; this
// middleware only reads the subject claim from the already-verified token, so
// a missing or unparseable token degrades to anonymous attribution rather
// than a rejection.
func Attribution(logger *slog.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims := jwt.MapClaims{}
			if _, _, err := parser.ParseUnverified(token, claims); err != nil {
				logger.DebugContext(r.Context(), "unparseable bearer token, attribution omitted",
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/pkg/logger"
	"go.uber.org/zap"
)

// Auth validates a Bearer JWT and stores the caller it encodes in the request context.
func Auth(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}
			caller, err := tokens.Parse(strings.TrimSpace(ah[len("Bearer "):]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			ctx := auth.WithCaller(r.Context(), caller)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", caller.UserID.String())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wayfarer-labs/wayfarer/internal/platform/httpx"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
)

// Middleware attaches the resolved principal to requests.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Principal resolves the session user into a principal and stores it in
// the request context. Requests without a logged-in session pass through
// anonymously.
func (m Middleware) Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("auth parse session user id", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Resolver.Resolve(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("auth resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePrincipal rejects anonymous requests with 401.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.PrincipalFromContext(r.Context()) == nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/credflow/credflow/internal/domain/identity"
)

type authContextKey string

const identityKey authContextKey = "identity"

func withIdentity(ctx context.Context, id *identity.Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

func identityFromContext(ctx context.Context) *identity.Identity {
	if v, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return v
	}
	return nil
}

// requireAuth verifies the bearer token minted by the auth service and
// stores the caller identity in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := identity.VerifyToken(extractToken(r), s.tokenSecret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[identity.Role]struct{})
	for _, r := range roles {
		allowed[identity.ParseRole(r)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFromContext(r.Context())
			if id == nil {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) identityFromRequest(r *http.Request) identity.Identity {
	if id := identityFromContext(r.Context()); id != nil {
		return *id
	}
	return identity.Identity{}
}

func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	// SSE clients cannot set headers from EventSource; allow a query token.
	return r.URL.Query().Get("token")
}

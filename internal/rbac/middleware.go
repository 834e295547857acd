package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
)

// UserIDHeader carries the caller's user id, set by the fronting auth system.
const UserIDHeader = "X-User-ID"

// Middleware guards routes behind effective-role checks.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireRole rejects requests whose user does not effectively hold the role
// named by identity, either directly or through a group.
func (m Middleware) RequireRole(identity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(r.Header.Get(UserIDHeader), 10, 64)
			if err != nil || userID <= 0 {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			role, err := m.Resolver.relationships.roles.ByIdentity(r.Context(), identity)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve required role", slog.String("identity", identity), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if role == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			has, err := m.Resolver.UserHasEffectiveRole(r.Context(), userID, *role)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("check effective role", slog.Int64("user", userID), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !has {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

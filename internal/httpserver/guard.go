// apps/go-server/internal/httpserver/guard.go
//
// HTTP middleware around access.Guard.
// Denials are written as JSON errors with a status per decision.

package httpserver

import (
	"net/http"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
)

// decisionStatus maps guard outcomes onto HTTP. The browser client turns
// 401/402/403 back into its sign-in, pricing and unauthorized screens.
var decisionStatus = map[access.Decision]int{
	access.DecisionRedirectSignIn:       http.StatusUnauthorized,
	access.DecisionRedirectSubscribe:    http.StatusPaymentRequired,
	access.DecisionRedirectUnauthorized: http.StatusForbidden,
	access.DecisionPending:              http.StatusServiceUnavailable,
}

// guard runs every request through g. Session resolution has already
// finished by the time handlers run, so the state is always resolved.
func (s *Server) guard(g access.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(currentUser(r).Principal(), access.AuthResolved)
			if d != access.DecisionAllow {
				writeDenied(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAnyRole admits callers whose role is one of roles, regardless of rank.
func (s *Server) requireAnyRole(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := currentUser(r)
			if u == nil {
				writeDenied(w, access.DecisionRedirectSignIn)
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeDenied(w, access.DecisionRedirectUnauthorized)
		})
	}
}

func writeDenied(w http.ResponseWriter, d access.Decision) {
	status, ok := decisionStatus[d]
	if !ok {
		status = http.StatusForbidden
	}
	writeError(w, status, string(d))
}

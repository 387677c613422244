// apps/go-server/internal/access/guard.go
//
// Route guards: combine session state with the access policy and report
// whether to render, wait, or send the caller elsewhere.

package access

// Decision is the outcome of a route guard evaluation.
type Decision string

const (
	DecisionAllow                Decision = "allow"
	DecisionRedirectSignIn       Decision = "redirect_signin"
	DecisionRedirectSubscribe    Decision = "redirect_subscribe"
	DecisionRedirectUnauthorized Decision = "redirect_unauthorized"
	DecisionPending              Decision = "pending"
)

// AuthState is where upstream session resolution stands when the guard runs.
type AuthState int

const (
	AuthPending AuthState = iota
	AuthResolved
)

// Guard describes what a route demands. An empty RequiredRole means
// "authentication only" when RequireAuth is set, and no checks otherwise.
type Guard struct {
	RequireAuth  bool
	RequiredRole Role
}

// Decide evaluates the guard for p. p is nil when no session exists.
func (g Guard) Decide(p *Principal, state AuthState) Decision {
	if state == AuthPending {
		return DecisionPending
	}
	if g.RequireAuth && p == nil {
		return DecisionRedirectSignIn
	}
	if g.RequiredRole == "" {
		return DecisionAllow
	}
	switch evaluate(p, g.RequiredRole) {
	case verdictSubscription:
		return DecisionRedirectSubscribe
	case verdictRank:
		return DecisionRedirectUnauthorized
	}
	return DecisionAllow
}

// RouteGuardDecision is the functional form of Guard.Decide for a route that
// requires authentication.
func RouteGuardDecision(p *Principal, required Role, isAuthLoading bool) Decision {
	state := AuthResolved
	if isAuthLoading {
		state = AuthPending
	}
	return Guard{RequireAuth: true, RequiredRole: required}.Decide(p, state)
}

// apps/go-server/internal/access/policy.go
//
// Role and subscription based access policy.
// Responsibilities:
//   - Define the role hierarchy (guest < learner < subscriber|translator < admin).
//   - Decide whether a principal may reach content tagged with a required role.
//   - Map that decision onto route guard outcomes (allow / sign in / subscribe / deny).
//
// Notes:
//   - Everything here is pure: no I/O, no globals beyond the fixed rank table.
//   - translator shares rank 2 with subscriber but is never asked for an
//     active subscription; only role == subscriber is.
package access

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a user's tier in the membership hierarchy.
type Role string

const (
	RoleGuest      Role = "guest"
	RoleLearner    Role = "learner"
	RoleSubscriber Role = "subscriber"
	RoleTranslator Role = "translator"
	RoleAdmin      Role = "admin"
)

// SubscriptionStatus mirrors the billing provider's subscription state.
type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// ErrUnknownRole is returned when parsing a role string outside the enumeration.
var ErrUnknownRole = errors.New("access: unknown role")

// ErrUnknownSubscription is returned for subscription status strings outside the enumeration.
var ErrUnknownSubscription = errors.New("access: unknown subscription status")

var ranks = map[Role]int{
	RoleGuest:      0,
	RoleLearner:    1,
	RoleSubscriber: 2,
	RoleTranslator: 2,
	RoleAdmin:      3,
}

// Principal is the actor being evaluated. A nil *Principal means unauthenticated.
type Principal struct {
	Role               Role               `json:"role"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

// Anonymous is the principal used for unauthenticated callers.
var Anonymous = Principal{Role: RoleGuest, SubscriptionStatus: SubscriptionInactive}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ranks[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// ParseRequiredRole validates a content requirement. translator is not a valid requirement.
func ParseRequiredRole(s string) (Role, error) {
	r, err := ParseRole(s)
	if err != nil {
		return "", err
	}
	if r == RoleTranslator {
		return "", fmt.Errorf("%w: %q is not a content requirement", ErrUnknownRole, s)
	}
	return r, nil
}

// ParseSubscriptionStatus normalizes and validates a subscription status.
// An empty string is treated as inactive.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	st := SubscriptionStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "":
		return SubscriptionInactive, nil
	case SubscriptionInactive, SubscriptionActive, SubscriptionTrialing, SubscriptionCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSubscription, s)
}

// Rank returns the hierarchy rank of r. ok is false for unknown roles.
func Rank(r Role) (rank int, ok bool) {
	rank, ok = ranks[r]
	return rank, ok
}

// mustRank panics on values that never went through ParseRole.
func mustRank(r Role) int {
	n, ok := ranks[r]
	if !ok {
		panic(fmt.Sprintf("access: unranked role %q", r))
	}
	return n
}

// CanAccess reports whether p may reach a resource requiring required.
// A nil principal is treated as an anonymous guest.
func CanAccess(p *Principal, required Role) bool {
	return evaluate(p, required) == verdictAllow
}

type verdict int

const (
	verdictAllow verdict = iota
	verdictRank
	verdictSubscription
)

func evaluate(p *Principal, required Role) verdict {
	if required == RoleGuest {
		return verdictAllow
	}
	if p == nil {
		p = &Anonymous
	}
	if mustRank(p.Role) < mustRank(required) {
		return verdictRank
	}
	if p.Role == RoleAdmin {
		return verdictAllow
	}
	if required == RoleSubscriber && p.Role == RoleSubscriber && p.SubscriptionStatus != SubscriptionActive {
		return verdictSubscription
	}
	return verdictAllow
}

// Package guard decides whether a route may render for the current session.
package guard

import (
	"schoolleave/internal/model"
	"schoolleave/internal/session"
)

// Outcome is the result of evaluating a guarded route.
type Outcome int

const (
	// OutcomePending means the session has not resolved yet; show a loading state.
	OutcomePending Outcome = iota
	OutcomeRender
	OutcomeRedirectLogin
)

// LoginPath is where every redirect outcome points.
const LoginPath = "/login"

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeRender:
		return "render"
	case OutcomeRedirectLogin:
		return "redirect_login"
	}
	return "unknown"
}

// RoleSet is the set of roles a route admits.
type RoleSet map[model.Role]struct{}

// Allow builds a RoleSet.
func Allow(roles ...model.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether r is admitted.
func (s RoleSet) Has(r model.Role) bool {
	_, ok := s[r]
	return ok
}

// Decide is evaluated on every navigation. It never fails; redirects are
// ordinary outcomes.
func Decide(snap session.Snapshot, allowed RoleSet) Outcome {
	if snap.State == session.StateInitializing {
		return OutcomePending
	}
	if snap.Identity == nil {
		return OutcomeRedirectLogin
	}
	if !allowed.Has(snap.Identity.Role) {
		return OutcomeRedirectLogin
	}
	return OutcomeRender
}

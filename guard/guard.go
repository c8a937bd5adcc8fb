// Package guard decides whether a protected view may be shown, purely as a
// function of session state and the view's required clearance.
package guard

import (
	"errors"

	"github.com/analuiza2102/bioaccess/session"
)

// State is the authorization state of one guarded view.
type State int

const (
	// StatePending means the session store is still restoring; nothing may
	// be shown yet.
	StatePending State = iota
	// StateAuthorized allows the guarded content.
	StateAuthorized
	// StateUnauthenticated means no session is held.
	StateUnauthenticated
	// StateInsufficientClearance means a session is held but its clearance
	// is below the declared requirement.
	StateInsufficientClearance
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAuthorized:
		return "authorized"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateInsufficientClearance:
		return "insufficient_clearance"
	}
	return "unknown"
}

// Navigation is the redirect a denied state asks the hosting shell to
// perform. The guard never navigates itself; it returns the intent and the
// shell executes it after the evaluation pass completes.
type Navigation int

const (
	NavigateNone Navigation = iota
	NavigateLogin
	NavigateAccessDenied
)

// Decision is the outcome of one guard evaluation.
type Decision struct {
	State    State
	Navigate Navigation
}

var (
	// ErrUnauthenticated is the error form of StateUnauthenticated.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInsufficientClearance is the error form of StateInsufficientClearance.
	ErrInsufficientClearance = errors.New("insufficient clearance")
)

// Guard wraps one protected view. A required clearance of 0 admits any
// authenticated user.
type Guard struct {
	sessions *session.Store
	required int
}

// New creates a guard over the given session store. requiredClearance 0
// means "any authenticated user".
func New(sessions *session.Store, requiredClearance int) *Guard {
	return &Guard{sessions: sessions, required: requiredClearance}
}

// RequiredClearance returns the declared requirement (0 = none).
func (g *Guard) RequiredClearance() int {
	return g.required
}

// Evaluate computes the current decision. It has no side effects and no
// memory: a denied decision stays denied until the session store changes.
func (g *Guard) Evaluate() Decision {
	switch {
	case g.sessions.Loading():
		return Decision{State: StatePending}
	case !g.sessions.IsAuthenticated():
		return Decision{State: StateUnauthenticated, Navigate: NavigateLogin}
	case g.required > 0 && !g.sessions.HasAccess(g.required):
		return Decision{State: StateInsufficientClearance, Navigate: NavigateAccessDenied}
	}
	return Decision{State: StateAuthorized}
}

// Err returns nil when the guard authorizes, or the sentinel matching the
// denial. Calling Err while the session store is still loading reports
// unauthenticated; callers should finish Initialize first.
func (g *Guard) Err() error {
	switch g.Evaluate().State {
	case StateAuthorized:
		return nil
	case StateInsufficientClearance:
		return ErrInsufficientClearance
	}
	return ErrUnauthenticated
}

// Watch re-evaluates on every session store change and hands each decision
// to fn, starting with the current one. fn runs after the evaluation that
// produced its decision, so it may safely navigate or mutate the session.
// The returned stop function cancels the subscription.
func (g *Guard) Watch(fn func(Decision)) func() {
	stop := g.sessions.Subscribe(func() {
		fn(g.Evaluate())
	})
	fn(g.Evaluate())
	return stop
}

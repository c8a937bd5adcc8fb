// Package session owns the authenticated identity of the client: the
// {token, user} pair, its persistence across restarts, and the clearance
// predicates every access decision is based on.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/analuiza2102/bioaccess/storage"
)

// Role is the named tier a user belongs to. Access checks never use it
// directly; the numeric clearance is authoritative.
type Role string

const (
	RolePublic   Role = "public"
	RoleDirector Role = "director"
	RoleMinister Role = "minister"
)

// Clearance levels. Higher subsumes lower.
const (
	ClearancePublic   = 1
	ClearanceDirector = 2
	ClearanceMinister = 3
)

// ClearanceFor returns the conventional clearance for a role, or 0 for an
// unknown role.
func ClearanceFor(role Role) int {
	switch role {
	case RolePublic:
		return ClearancePublic
	case RoleDirector:
		return ClearanceDirector
	case RoleMinister:
		return ClearanceMinister
	}
	return 0
}

// User is the identity record bound to an authenticated session.
type User struct {
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	Clearance int    `json:"clearance"`
}

// ErrInvalidClearance is returned by Login when the user record carries a
// clearance outside 1..3.
var ErrInvalidClearance = errors.New("clearance must be 1, 2 or 3")

// Persisted state layout: two keys in one bucket, written and cleared
// together, never independently.
const (
	stateBucket = "session"
	tokenKey    = "bioaccess_token"
	userKey     = "bioaccess_user"
)

// Store is the single source of truth for "who is logged in and at what
// clearance". It is the only component that touches persisted session state.
//
// A zero Store is not usable; construct with New and call Initialize once
// before consulting any predicate.
type Store struct {
	mu      sync.RWMutex
	repo    storage.Store
	log     zerolog.Logger
	token   string
	user    *User
	loading bool

	obsMu     sync.Mutex
	observers map[int]func()
	nextObsID int
}

// New creates a Store over the given persistence layer. The store reports
// Loading() == true until Initialize has run.
func New(repo storage.Store, log zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		log:       log,
		loading:   true,
		observers: make(map[int]func()),
	}
}

// Initialize restores any previously persisted session. A half-present or
// structurally corrupted pair is treated as no session and both keys are
// wiped. Storage failures degrade to logged-out; they never propagate.
//
// Dependent components must not trust the session state until this has run;
// Loading() reports the restore window.
func (s *Store) Initialize() {
	token, user, ok := s.restore()

	s.mu.Lock()
	if ok {
		s.token = token
		s.user = &user
	}
	s.loading = false
	s.mu.Unlock()

	s.notify()
}

func (s *Store) restore() (string, User, bool) {
	tokenRaw, tokenErr := s.repo.Get(stateBucket, tokenKey)
	userRaw, userErr := s.repo.Get(stateBucket, userKey)

	if tokenErr != nil && userErr != nil {
		// Nothing persisted. The common cold-start case.
		return "", User{}, false
	}
	if tokenErr != nil || userErr != nil {
		s.log.Warn().Msg("session: half-present persisted state, clearing")
		s.wipe()
		return "", User{}, false
	}

	var user User
	if err := json.Unmarshal(userRaw, &user); err != nil {
		s.log.Warn().Err(err).Msg("session: corrupted user record, clearing")
		s.wipe()
		return "", User{}, false
	}
	if len(tokenRaw) == 0 || user.Username == "" || user.Clearance < 1 || user.Clearance > 3 {
		s.log.Warn().Msg("session: malformed persisted session, clearing")
		s.wipe()
		return "", User{}, false
	}
	return string(tokenRaw), user, true
}

// Loading reports whether the one-time restore is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Login sets the session atomically in memory and in persisted storage.
// The token is opaque and not validated. If persisting fails, the store
// stays logged out and the error is returned.
func (s *Store) Login(token string, user User) error {
	if user.Clearance < 1 || user.Clearance > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidClearance, user.Clearance)
	}

	userRaw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user record: %w", err)
	}
	if err := s.repo.Put(stateBucket, tokenKey, []byte(token)); err != nil {
		s.wipe()
		return fmt.Errorf("persisting session: %w", err)
	}
	if err := s.repo.Put(stateBucket, userKey, userRaw); err != nil {
		// Never leave a half-written pair behind.
		s.wipe()
		return fmt.Errorf("persisting session: %w", err)
	}

	s.mu.Lock()
	s.token = token
	u := user
	s.user = &u
	s.mu.Unlock()

	s.log.Info().Str("username", user.Username).Int("clearance", user.Clearance).Msg("session: login")
	s.notify()
	return nil
}

// Logout clears the session from memory and storage. Idempotent: repeated
// calls are no-ops after the first.
func (s *Store) Logout() {
	s.mu.Lock()
	had := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	s.wipe()

	if had {
		s.log.Info().Msg("session: logout")
		s.notify()
	}
}

// wipe removes both persisted keys. Storage failures are swallowed: a broken
// persistence layer behaves as logged-out.
func (s *Store) wipe() {
	if err := s.repo.Delete(stateBucket, tokenKey); err != nil {
		s.log.Warn().Err(err).Msg("session: clearing token key failed")
	}
	if err := s.repo.Delete(stateBucket, userKey); err != nil {
		s.log.Warn().Err(err).Msg("session: clearing user key failed")
	}
}

// IsAuthenticated reports whether both token and user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasAccess reports whether the current user's clearance meets the required
// level. Higher clearance subsumes lower tiers.
func (s *Store) HasAccess(requiredClearance int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	return s.user.Clearance >= requiredClearance
}

// Token returns the session token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user == nil {
		return "", false
	}
	return s.token, true
}

// User returns a copy of the current identity record, if any.
func (s *Store) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Subscribe registers fn to run after every session state change (restore,
// login, logout). It returns an unsubscribe function. Callbacks run on the
// mutating goroutine, outside the store's lock.
func (s *Store) Subscribe(fn func()) func() {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify() {
	s.obsMu.Lock()
	fns := make([]func(), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

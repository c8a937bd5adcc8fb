package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analuiza2102/bioaccess/storage"
	"github.com/analuiza2102/bioaccess/storage/memory"
)

func newTestStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	repo := memory.New()
	s := New(repo, zerolog.Nop())
	s.Initialize()
	return s, repo
}

func TestLoadingFlag(t *testing.T) {
	s := New(memory.New(), zerolog.Nop())
	assert.True(t, s.Loading())
	s.Initialize()
	assert.False(t, s.Loading())
}

func TestLoginLogout(t *testing.T) {
	s, repo := newTestStore(t)

	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))
	assert.True(t, s.IsAuthenticated())

	token, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "T", token)

	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	// Both keys persisted together.
	_, err := repo.Get("session", "bioaccess_token")
	require.NoError(t, err)
	_, err = repo.Get("session", "bioaccess_user")
	require.NoError(t, err)

	s.Logout()
	assert.False(t, s.IsAuthenticated())
	_, ok = s.Token()
	assert.False(t, ok)

	// Both keys cleared together.
	_, err = repo.Get("session", "bioaccess_token")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.Get("session", "bioaccess_user")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	s, repo := newTestStore(t)
	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))

	calls := 0
	s.Subscribe(func() { calls++ })

	s.Logout()
	s.Logout()
	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, calls, "only the first logout changes state")

	keys, err := repo.List("session")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLoginRejectsBadClearance(t *testing.T) {
	s, _ := newTestStore(t)

	for _, clearance := range []int{0, -1, 4, 42} {
		err := s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: clearance})
		assert.ErrorIs(t, err, ErrInvalidClearance, "clearance %d", clearance)
		assert.False(t, s.IsAuthenticated())
	}
}

func TestHasAccess(t *testing.T) {
	tests := []struct {
		clearance int
		required  int
		want      bool
	}{
		{1, 1, true}, {1, 2, false}, {1, 3, false},
		{2, 1, true}, {2, 2, true}, {2, 3, false},
		{3, 1, true}, {3, 2, true}, {3, 3, true},
	}
	for _, tt := range tests {
		s, _ := newTestStore(t)
		require.NoError(t, s.Login("T", User{Username: "u", Role: RolePublic, Clearance: tt.clearance}))
		assert.Equal(t, tt.want, s.HasAccess(tt.required),
			"clearance %d vs required %d", tt.clearance, tt.required)
	}
}

func TestHasAccessWithoutSession(t *testing.T) {
	s, _ := newTestStore(t)
	for r := 1; r <= 3; r++ {
		assert.False(t, s.HasAccess(r))
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	repo := memory.New()

	s := New(repo, zerolog.Nop())
	s.Initialize()
	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))

	// A fresh store over the same repository restores the session.
	s2 := New(repo, zerolog.Nop())
	s2.Initialize()

	assert.True(t, s2.IsAuthenticated())
	u, ok := s2.User()
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, 1, u.Clearance)
	token, _ := s2.Token()
	assert.Equal(t, "T", token)
}

func TestRestoreHalfPresentStateWipesBoth(t *testing.T) {
	tests := []struct {
		name string
		seed func(repo *memory.Store)
	}{
		{"token only", func(repo *memory.Store) {
			repo.Put("session", "bioaccess_token", []byte("T"))
		}},
		{"user only", func(repo *memory.Store) {
			repo.Put("session", "bioaccess_user", []byte(`{"username":"alice","role":"public","clearance":1}`))
		}},
		{"corrupted user json", func(repo *memory.Store) {
			repo.Put("session", "bioaccess_token", []byte("T"))
			repo.Put("session", "bioaccess_user", []byte("{not json"))
		}},
		{"clearance out of range", func(repo *memory.Store) {
			repo.Put("session", "bioaccess_token", []byte("T"))
			repo.Put("session", "bioaccess_user", []byte(`{"username":"alice","role":"public","clearance":9}`))
		}},
		{"empty username", func(repo *memory.Store) {
			repo.Put("session", "bioaccess_token", []byte("T"))
			repo.Put("session", "bioaccess_user", []byte(`{"role":"public","clearance":1}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.New()
			tt.seed(repo)

			s := New(repo, zerolog.Nop())
			s.Initialize()

			assert.False(t, s.IsAuthenticated())
			keys, err := repo.List("session")
			require.NoError(t, err)
			assert.Empty(t, keys, "both keys wiped")
		})
	}
}

// failingStore simulates an unavailable persistence layer.
type failingStore struct{}

var errBroken = errors.New("storage offline")

func (failingStore) Get(bucket, key string) ([]byte, error) { return nil, errBroken }
func (failingStore) Put(bucket, key string, v []byte) error { return errBroken }
func (failingStore) Delete(bucket, key string) error        { return errBroken }
func (failingStore) List(bucket string) ([]string, error)   { return nil, errBroken }

func TestBrokenStorageDegradesToLoggedOut(t *testing.T) {
	s := New(failingStore{}, zerolog.Nop())
	s.Initialize()

	assert.False(t, s.Loading())
	assert.False(t, s.IsAuthenticated())

	err := s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1})
	assert.Error(t, err)
	assert.False(t, s.IsAuthenticated(), "failed persist leaves the store logged out")

	// Logout on broken storage must not panic or propagate.
	s.Logout()
	assert.False(t, s.IsAuthenticated())
}

func TestSubscribeNotifies(t *testing.T) {
	s := New(memory.New(), zerolog.Nop())

	var events int
	unsubscribe := s.Subscribe(func() { events++ })

	s.Initialize() // restore completion notifies
	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))
	s.Logout()
	assert.Equal(t, 3, events)

	unsubscribe()
	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))
	assert.Equal(t, 3, events, "no notifications after unsubscribe")
}

// Observers may consult the store; notify must run outside the lock.
func TestObserverMayReadStore(t *testing.T) {
	s, _ := newTestStore(t)

	var sawAuthenticated bool
	s.Subscribe(func() { sawAuthenticated = s.IsAuthenticated() })

	require.NoError(t, s.Login("T", User{Username: "alice", Role: RolePublic, Clearance: 1}))
	assert.True(t, sawAuthenticated)
}

func TestClearanceFor(t *testing.T) {
	assert.Equal(t, 1, ClearanceFor(RolePublic))
	assert.Equal(t, 2, ClearanceFor(RoleDirector))
	assert.Equal(t, 3, ClearanceFor(RoleMinister))
	assert.Equal(t, 0, ClearanceFor(Role("intern")))
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
)

// fakeBackend drives the store from tests: events are pushed by hand
// and role checks can be blocked per user to simulate slow gateway
// round-trips.
type fakeBackend struct {
	mu      sync.Mutex
	events  chan gateway.AuthEvent
	current *domain.Session
	admins  map[string]bool
	roleErr error
	block   map[string]chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		events: make(chan gateway.AuthEvent, 16),
		admins: map[string]bool{},
		block:  map[string]chan struct{}{},
	}
}

func (f *fakeBackend) SubscribeAuth() (<-chan gateway.AuthEvent, func()) {
	return f.events, func() { close(f.events) }
}

func (f *fakeBackend) CurrentSession(ctx context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) error {
	return nil
}
func (f *fakeBackend) SignUp(ctx context.Context, email, password, redirectTo string) error {
	return nil
}
func (f *fakeBackend) SignOut(ctx context.Context) error { return nil }

func (f *fakeBackend) HasRole(ctx context.Context, userID, role string) (bool, error) {
	f.mu.Lock()
	gate := f.block[userID]
	err := f.roleErr
	admin := f.admins[userID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return false, err
	}
	return admin, nil
}

func (f *fakeBackend) emit(sess *domain.Session) {
	kind := gateway.EventSignedIn
	if sess == nil {
		kind = gateway.EventSignedOut
	}
	f.events <- gateway.AuthEvent{Kind: kind, Session: sess}
}

func sessionFor(uid string) *domain.Session {
	return &domain.Session{
		UserID:    uid,
		Email:     uid + "@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
		RawToken:  "tok-" + uid,
	}
}

func newTestStore(t *testing.T, f *fakeBackend) *Store {
	t.Helper()
	s := New(f, "http://localhost", zap.NewNop())
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestInitialize_NoSessionResolvesAnonymous(t *testing.T) {
	f := newFakeBackend()
	s := newTestStore(t, f)

	snap := s.Current()
	assert.Equal(t, domain.AuthAnonymous, snap.State)
	assert.Nil(t, snap.Session)
	assert.False(t, snap.Identity.IsAdmin)
}

func TestInitialize_ExistingSessionResolvesAuthenticated(t *testing.T) {
	f := newFakeBackend()
	f.current = sessionFor("u1")
	f.admins["u1"] = true
	s := newTestStore(t, f)

	require.Eventually(t, func() bool {
		return s.State() == domain.AuthAuthenticated
	}, time.Second, time.Millisecond)

	id := s.Identity()
	assert.Equal(t, "u1", id.UserID)
	assert.True(t, id.IsAdmin)
}

func TestSignInEvent_DrivesStateTransition(t *testing.T) {
	f := newFakeBackend()
	s := newTestStore(t, f)
	require.Equal(t, domain.AuthAnonymous, s.State())

	f.admins["u1"] = true
	f.emit(sessionFor("u1"))

	require.Eventually(t, func() bool {
		snap := s.Current()
		return snap.State == domain.AuthAuthenticated && snap.Identity.IsAdmin
	}, time.Second, time.Millisecond)

	f.emit(nil) // sign out
	require.Eventually(t, func() bool {
		return s.State() == domain.AuthAnonymous
	}, time.Second, time.Millisecond)
	assert.False(t, s.Identity().IsAdmin, "isAdmin never true without a session")
	assert.Nil(t, s.Session())
}

func TestStaleRoleCheck_DoesNotOverwriteNewerEvent(t *testing.T) {
	f := newFakeBackend()
	s := newTestStore(t, f)

	// the first event's role check hangs until released
	release := make(chan struct{})
	f.mu.Lock()
	f.block["slow"] = release
	f.admins["slow"] = true
	f.mu.Unlock()

	f.emit(sessionFor("slow"))
	require.Eventually(t, func() bool {
		return s.State() == domain.AuthLoading
	}, time.Second, time.Millisecond)

	// a newer event arrives and fully resolves first
	f.emit(nil)
	require.Eventually(t, func() bool {
		return s.State() == domain.AuthAnonymous
	}, time.Second, time.Millisecond)

	// now the stale admin=true resolution lands; it must be discarded
	close(release)
	time.Sleep(20 * time.Millisecond)

	snap := s.Current()
	assert.Equal(t, domain.AuthAnonymous, snap.State, "state must reflect the last event")
	assert.False(t, snap.Identity.IsAdmin)
}

func TestRoleCheckFailure_DegradesToNonAdmin(t *testing.T) {
	f := newFakeBackend()
	f.roleErr = errors.New("rpc unavailable")
	s := newTestStore(t, f)

	f.emit(sessionFor("u1"))
	require.Eventually(t, func() bool {
		return s.State() == domain.AuthAuthenticated
	}, time.Second, time.Millisecond)
	assert.False(t, s.Identity().IsAdmin, "role-check failure degrades instead of propagating")
}

func TestClose_DiscardsInflightResolution(t *testing.T) {
	f := newFakeBackend()
	s := New(f, "http://localhost", zap.NewNop())
	require.NoError(t, s.Initialize(context.Background()))

	release := make(chan struct{})
	f.mu.Lock()
	f.block["u1"] = release
	f.admins["u1"] = true
	f.mu.Unlock()

	f.emit(sessionFor("u1"))
	require.Eventually(t, func() bool {
		return s.State() == domain.AuthLoading
	}, time.Second, time.Millisecond)

	s.Close()
	close(release)
	time.Sleep(20 * time.Millisecond)

	snap := s.Current()
	assert.NotEqual(t, domain.AuthAuthenticated, snap.State, "no state mutation after teardown")
	assert.False(t, snap.Identity.IsAdmin)
}

func TestClose_ClosesWatchChannels(t *testing.T) {
	f := newFakeBackend()
	s := New(f, "http://localhost", zap.NewNop())
	require.NoError(t, s.Initialize(context.Background()))

	ch := s.Watch()
	<-ch // initial snapshot

	s.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "watcher must see the channel closed, not block")
	case <-time.After(time.Second):
		t.Fatal("watch channel still open after teardown")
	}

	// a watch taken after teardown still yields the final snapshot,
	// then closes
	late := s.Watch()
	snap, ok := <-late
	require.True(t, ok)
	assert.Equal(t, domain.AuthAnonymous, snap.State)
	_, ok = <-late
	assert.False(t, ok)
}

func TestWatch_CarriesLatestSnapshot(t *testing.T) {
	f := newFakeBackend()
	s := newTestStore(t, f)
	ch := s.Watch()

	// initial value is delivered immediately
	snap := <-ch
	assert.Equal(t, domain.AuthAnonymous, snap.State)

	f.admins["u1"] = true
	f.emit(sessionFor("u1"))

	require.Eventually(t, func() bool {
		select {
		case snap = <-ch:
		default:
		}
		return snap.State == domain.AuthAuthenticated && snap.Identity.IsAdmin
	}, time.Second, time.Millisecond)
}

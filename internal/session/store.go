// Package session owns "who is acting now": one live session per
// process, with the admin flag derived asynchronously through the
// gateway's privileged role check.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
)

// Backend is the slice of the gateway the store needs.
type Backend interface {
	gateway.Auth
	gateway.RoleChecker
}

// Snapshot is one observable state of the store. Identity.IsAdmin is
// false while State is AuthLoading.
type Snapshot struct {
	State    domain.AuthState
	Session  *domain.Session
	Identity domain.Identity
}

// Store is the single source of truth for the current identity. It is
// constructed explicitly, initialized once, and closed when its owner
// is done; a fresh instance per test is cheap.
type Store struct {
	gw     Backend
	origin string
	log    *zap.Logger

	mu       sync.Mutex
	gen      uint64 // bumped per auth event; stale role checks compare against it
	closed   bool
	snap     Snapshot
	unsub    func()
	watchers []chan Snapshot
}

func New(gw Backend, origin string, log *zap.Logger) *Store {
	return &Store{
		gw:     gw,
		origin: origin,
		log:    log,
		snap:   Snapshot{State: domain.AuthUnknown},
	}
}

// Initialize subscribes to the auth stream first and only then asks
// for the current session snapshot, so an event firing in between is
// not lost. It returns once the snapshot has been applied; resolution
// to Authenticated/Anonymous continues asynchronously.
func (s *Store) Initialize(ctx context.Context) error {
	events, unsub := s.gw.SubscribeAuth()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.unsub = unsub
	s.mu.Unlock()

	go s.loop(events)

	sess, err := s.gw.CurrentSession(ctx)
	if err != nil {
		return err
	}
	s.apply(sess)
	return nil
}

func (s *Store) loop(events <-chan gateway.AuthEvent) {
	for ev := range events {
		s.apply(ev.Session)
	}
}

// apply processes one auth transition: re-enter Loading, replace the
// raw session, then resolve asynchronously. The generation counter —
// not a "was this the last write" check — guards against an older
// event's role check overwriting a newer event's state.
func (s *Store) apply(sess *domain.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.snap = Snapshot{State: domain.AuthLoading, Session: sess}
	if sess != nil {
		s.snap.Identity = domain.Identity{UserID: sess.UserID}
	}
	s.publishLocked()
	s.mu.Unlock()

	if sess == nil {
		s.resolve(gen, domain.AuthAnonymous, domain.Identity{})
		return
	}

	go func() {
		admin, err := s.gw.HasRole(context.Background(), sess.UserID, domain.RoleAdmin)
		if err != nil {
			// losing admin status is safer than crashing the machine
			s.log.Warn("role check failed, degrading to non-admin",
				zap.String("user_id", sess.UserID), zap.Error(err))
			admin = false
		}
		s.resolve(gen, domain.AuthAuthenticated, domain.Identity{UserID: sess.UserID, IsAdmin: admin})
	}()
}

func (s *Store) resolve(gen uint64, st domain.AuthState, id domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return // superseded by a newer event or torn down
	}
	s.snap.State = st
	s.snap.Identity = id
	s.publishLocked()
}

// Current returns the latest observable snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Store) State() domain.AuthState   { return s.Current().State }
func (s *Store) Identity() domain.Identity { return s.Current().Identity }
func (s *Store) Session() *domain.Session  { return s.Current().Session }

// Watch returns a channel carrying state transitions. It holds only
// the latest value: a slow reader sees the newest snapshot, not a
// backlog.
func (s *Store) Watch() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	ch <- s.snap
	if s.closed {
		close(ch)
	} else {
		s.watchers = append(s.watchers, ch)
	}
	s.mu.Unlock()
	return ch
}

func (s *Store) publishLocked() {
	for _, ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.snap:
		default:
		}
	}
}

// SignIn delegates the credential check to the gateway. State is not
// mutated here: the subscribed stream event is the single transition
// path.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	return s.gw.SignInWithPassword(ctx, email, password)
}

// SignUp is SignIn's registration counterpart; the callback-redirect
// target is the configured origin.
func (s *Store) SignUp(ctx context.Context, email, password string) error {
	return s.gw.SignUp(ctx, email, password, s.origin)
}

// SignOut asks the gateway to invalidate the session; the stream event
// then clears session and identity.
func (s *Store) SignOut(ctx context.Context) error {
	return s.gw.SignOut(ctx)
}

// Close unsubscribes, marks the store inert so in-flight role-check
// resolutions are discarded rather than mutating a disposed store, and
// closes every watcher channel so dependents ranging over them return.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	unsub := s.unsub
	s.unsub = nil
	watchers := s.watchers
	s.watchers = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	for _, ch := range watchers {
		close(ch)
	}
}

package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BAZ1995/Theblog.io/internal/core/auth"
	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/feature/blog"
	"github.com/BAZ1995/Theblog.io/pkg/utils"
)

// Gorm is the relational gateway implementation: users and content in
// one database, sessions as signed tokens, auth transitions fanned out
// to subscribers in emission order.
type Gorm struct {
	db    *gorm.DB
	jwter *auth.JWTer
	log   *zap.Logger

	posts    *postStore
	comments *commentStore

	mu      sync.Mutex
	current *domain.Session
	subs    map[int]chan AuthEvent
	nextSub int
}

func NewGorm(db *gorm.DB, jwter *auth.JWTer, log *zap.Logger) *Gorm {
	return &Gorm{
		db:       db,
		jwter:    jwter,
		log:      log,
		posts:    &postStore{db: db},
		comments: &commentStore{db: db},
		subs:     make(map[int]chan AuthEvent),
	}
}

func (g *Gorm) AutoMigrate() error {
	return g.db.AutoMigrate(
		&blog.UserModel{},
		&blog.UserRoleModel{},
		&blog.PostModel{},
		&blog.CommentModel{},
	)
}

func (g *Gorm) Posts() PostStore       { return g.posts }
func (g *Gorm) Comments() CommentStore { return g.comments }

/* ---------- auth ---------- */

func (g *Gorm) SubscribeAuth() (<-chan AuthEvent, func()) {
	ch := make(chan AuthEvent, 16)
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = ch
	g.mu.Unlock()

	unsub := func() {
		g.mu.Lock()
		if c, ok := g.subs[id]; ok {
			delete(g.subs, id)
			close(c)
		}
		g.mu.Unlock()
	}
	return ch, unsub
}

func (g *Gorm) CurrentSession(ctx context.Context) (*domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil, nil
	}
	s := *g.current
	return &s, nil
}

func (g *Gorm) SignInWithPassword(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var u blog.UserModel
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.Auth("invalid login credentials")
	case err != nil:
		return domain.Gateway("auth.signin", err)
	}
	if !utils.CheckPassword(password, u.PasswordHash) {
		return domain.Auth("invalid login credentials")
	}

	sess, err := g.issueSession(ctx, &u)
	if err != nil {
		return err
	}
	g.setCurrent(sess, EventSignedIn)
	return nil
}

func (g *Gorm) SignUp(ctx context.Context, email, password, redirectTo string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Auth("email and password are required")
	}

	u := blog.UserModel{
		ID:           utils.NewID(),
		Email:        email,
		PasswordHash: utils.HashPassword(password),
	}
	if err := g.db.WithContext(ctx).Create(&u).Error; err != nil {
		if isDupKey(err) {
			return domain.Auth("user already registered")
		}
		return domain.Gateway("auth.signup", err)
	}
	if redirectTo != "" {
		// confirmation mail delivery is the relay's concern; we only
		// record where it would have pointed
		g.log.Debug("signup redirect target", zap.String("redirect_to", redirectTo))
	}

	// no separate confirmation step: sign the new user straight in
	sess, err := g.issueSession(ctx, &u)
	if err != nil {
		return err
	}
	g.setCurrent(sess, EventSignedIn)
	return nil
}

func (g *Gorm) SignOut(ctx context.Context) error {
	g.setCurrent(nil, EventSignedOut)
	return nil
}

// HasRole is the privileged role lookup. Presence of the row grants
// the role.
func (g *Gorm) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var n int64
	err := g.db.WithContext(ctx).
		Model(&blog.UserRoleModel{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&n).Error
	if err != nil {
		return false, domain.Gateway("roles.check", err)
	}
	return n > 0, nil
}

func (g *Gorm) issueSession(ctx context.Context, u *blog.UserModel) (*domain.Session, error) {
	role := "user"
	if ok, err := g.HasRole(ctx, u.ID, domain.RoleAdmin); err == nil && ok {
		role = domain.RoleAdmin
	}
	tok, exp, err := g.jwter.Issue(u.ID, u.Email, role)
	if err != nil {
		return nil, domain.Gateway("auth.token", err)
	}
	return &domain.Session{
		UserID:    u.ID,
		Email:     u.Email,
		ExpiresAt: exp,
		RawToken:  tok,
	}, nil
}

func (g *Gorm) setCurrent(sess *domain.Session, kind AuthEventKind) {
	ev := AuthEvent{Kind: kind, Session: sess}
	g.mu.Lock()
	g.current = sess
	for _, ch := range g.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		// full buffer: evict the oldest so the newest transition always
		// lands and the stream still ends in the current state
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
		g.log.Warn("slow auth subscriber, conflating to latest", zap.String("kind", string(kind)))
	}
	g.mu.Unlock()
}

func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}

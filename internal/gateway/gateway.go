// Package gateway is the persistence/auth contract the rest of the
// system depends on. Callers treat it as a black box: auth state
// arrives on a subscription stream, role checks run with elevated
// privilege, and every data operation may fail with a store error
// whose message is surfaced verbatim.
package gateway

import (
	"context"

	"github.com/BAZ1995/Theblog.io/internal/domain"
)

type AuthEventKind string

const (
	EventInitialSession AuthEventKind = "INITIAL_SESSION"
	EventSignedIn       AuthEventKind = "SIGNED_IN"
	EventSignedOut      AuthEventKind = "SIGNED_OUT"
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
)

// AuthEvent is one auth-state transition. Session is nil on sign-out.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *domain.Session
}

// Auth is the authentication half of the gateway. Events are delivered
// on the subscription channel strictly in emission order.
type Auth interface {
	// SubscribeAuth returns the event stream and an unsubscribe func.
	SubscribeAuth() (<-chan AuthEvent, func())
	// CurrentSession is the snapshot of the live session, nil when
	// signed out.
	CurrentSession(ctx context.Context) (*domain.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, redirectTo string) error
	SignOut(ctx context.Context) error
}

// RoleChecker runs server-side with elevated privilege, so it stays
// reliable even when ordinary role-table reads are restricted.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

type PostStore interface {
	// ListPublished returns published posts, newest first. An empty
	// category means no category filter.
	ListPublished(ctx context.Context, category string) ([]domain.Post, error)
	// ListByAuthor returns all of an author's posts, drafts included,
	// newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error)
	// GetBySlug returns (nil, nil) when the post is absent. Draft
	// visibility is the store's row-level concern, not enforced here.
	GetBySlug(ctx context.Context, slug string) (*domain.Post, error)
	Insert(ctx context.Context, p *domain.Post) error
	// Update applies the patch and returns the resulting row.
	Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

type CommentStore interface {
	// ListByPost returns a post's comments in chronological order.
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Insert(ctx context.Context, c *domain.Comment) error
	Delete(ctx context.Context, id string) error
}

type Gateway interface {
	Auth
	RoleChecker
	Posts() PostStore
	Comments() CommentStore
}

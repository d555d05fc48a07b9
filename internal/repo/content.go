// Package repo is the typed read/write surface over posts and
// comments. Every read is memoized under a composite cache key and
// every mutation invalidates exactly the keys whose results it could
// have changed, so readers never observe stale lists after a write
// completes.
package repo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/core/cache"
	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/session"
	"github.com/BAZ1995/Theblog.io/pkg/utils"
)

// Cache key kinds. Lists are keyed by their filter discriminator.
const (
	kindPosts      = "posts"       // (posts, category)
	kindPost       = "post"        // (post, slug)
	kindComments   = "comments"    // (comments, postID)
	kindAdminPosts = "admin-posts" // (admin-posts, authorID)
)

type Content struct {
	gw    gateway.Gateway
	cache *cache.Cache
	sess  *session.Store
	log   *zap.Logger
}

func NewContent(gw gateway.Gateway, c *cache.Cache, sess *session.Store, log *zap.Logger) *Content {
	return &Content{gw: gw, cache: c, sess: sess, log: log}
}

/* ---------- posts ---------- */

// ListPosts returns published posts, newest first. "all" or empty
// applies no category filter.
func (r *Content) ListPosts(ctx context.Context, category string) ([]domain.Post, error) {
	disc := category
	if disc == "" {
		disc = domain.CategoryAll
	}
	filter := category
	if filter == domain.CategoryAll {
		filter = ""
	}
	return cache.GetOrLoadJSON(r.cache, ctx, cache.Key{Kind: kindPosts, Disc: disc},
		func(ctx context.Context) ([]domain.Post, error) {
			return r.gw.Posts().ListPublished(ctx, filter)
		})
}

// GetPost returns the post with the given slug, drafts included —
// hiding drafts from non-owners is the authorization gate's job, and
// row-level policy the store's. Absence is a NotFoundError, not a
// generic failure.
func (r *Content) GetPost(ctx context.Context, slug string) (*domain.Post, error) {
	return cache.GetOrLoadJSON(r.cache, ctx, cache.Key{Kind: kindPost, Disc: slug},
		func(ctx context.Context) (*domain.Post, error) {
			p, err := r.gw.Posts().GetBySlug(ctx, slug)
			if err != nil {
				return nil, err
			}
			if p == nil {
				return nil, domain.NotFound("post", slug)
			}
			return p, nil
		})
}

// ListAdminPosts is the author's dashboard listing: every post of the
// current user, drafts included, newest first.
func (r *Content) ListAdminPosts(ctx context.Context) ([]domain.Post, error) {
	uid := r.sess.Identity().UserID
	if uid == "" {
		return nil, domain.Auth("sign in to list your posts")
	}
	return cache.GetOrLoadJSON(r.cache, ctx, cache.Key{Kind: kindAdminPosts, Disc: uid},
		func(ctx context.Context) ([]domain.Post, error) {
			return r.gw.Posts().ListByAuthor(ctx, uid)
		})
}

type CreatePostInput struct {
	Title      string          `json:"title"`
	Excerpt    *string         `json:"excerpt"`
	Content    string          `json:"content"`
	CoverImage *string         `json:"coverImage"`
	Category   domain.Category `json:"category"`
	Published  bool            `json:"published"`
}

// CreatePost validates locally, stamps the current user as author,
// generates the immutable slug and writes through the gateway.
func (r *Content) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Validation("title", "is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.Validation("content", "is required")
	}
	if !in.Category.Valid() {
		return nil, domain.Validation("category", "must be tech, photography or cars")
	}
	uid := r.sess.Identity().UserID
	if uid == "" {
		return nil, domain.Auth("sign in to create posts")
	}

	p := &domain.Post{
		ID:         utils.NewID(),
		Title:      in.Title,
		Slug:       utils.GenerateSlug(in.Title),
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Category:   in.Category,
		AuthorID:   uid,
		Published:  in.Published,
	}
	if err := r.gw.Posts().Insert(ctx, p); err != nil {
		return nil, err
	}
	r.invalidateKinds(ctx, kindPosts, kindAdminPosts)
	return p, nil
}

// UpdatePost applies a partial patch. Slug is not part of the writable
// field set.
func (r *Content) UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.Validation("title", "is required")
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, domain.Validation("content", "is required")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, domain.Validation("category", "must be tech, photography or cars")
	}

	p, err := r.gw.Posts().Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidateKinds(ctx, kindPosts, kindAdminPosts)
	r.invalidate(ctx, cache.Key{Kind: kindPost, Disc: p.Slug})
	return p, nil
}

// DeletePost propagates the store's error unmodified — deleting an
// already-deleted id is not silently swallowed.
func (r *Content) DeletePost(ctx context.Context, id string) error {
	if err := r.gw.Posts().Delete(ctx, id); err != nil {
		return err
	}
	r.invalidateKinds(ctx, kindPosts, kindAdminPosts)
	return nil
}

/* ---------- comments ---------- */

// ListComments returns a post's comments in chronological order.
func (r *Content) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	return cache.GetOrLoadJSON(r.cache, ctx, cache.Key{Kind: kindComments, Disc: postID},
		func(ctx context.Context) ([]domain.Comment, error) {
			return r.gw.Comments().ListByPost(ctx, postID)
		})
}

func (r *Content) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := r.gw.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound("comment", id)
	}
	return c, nil
}

// CreateComment stores a comment, anonymously when userID is nil. A
// guest display name is a presentation concern and is not persisted.
func (r *Content) CreateComment(ctx context.Context, postID, content string, userID *string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.Validation("content", "is required")
	}
	c := &domain.Comment{
		ID:      utils.NewID(),
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := r.gw.Comments().Insert(ctx, c); err != nil {
		return nil, err
	}
	r.invalidate(ctx, cache.Key{Kind: kindComments, Disc: postID})
	return c, nil
}

func (r *Content) DeleteComment(ctx context.Context, id, postID string) error {
	if err := r.gw.Comments().Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, cache.Key{Kind: kindComments, Disc: postID})
	return nil
}

/* ---------- invalidation ---------- */

func (r *Content) invalidate(ctx context.Context, keys ...cache.Key) {
	if err := r.cache.Invalidate(ctx, keys...); err != nil {
		r.log.Warn("cache invalidate failed", zap.Error(err))
	}
}

func (r *Content) invalidateKinds(ctx context.Context, kinds ...string) {
	for _, k := range kinds {
		if err := r.cache.InvalidateKind(ctx, k); err != nil {
			r.log.Warn("cache invalidate failed", zap.String("kind", k), zap.Error(err))
		}
	}
}

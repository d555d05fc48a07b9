package repo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/core/cache"
	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/session"
)

/* ---------- in-memory gateway ---------- */

type fakePostStore struct {
	mu                 sync.Mutex
	posts              map[string]domain.Post
	listPublishedCalls int
	listAuthorCalls    int
	getCalls           int
	insertCalls        int
	deleteErr          error
}

func (s *fakePostStore) ListPublished(ctx context.Context, category string) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listPublishedCalls++
	var out []domain.Post
	for _, p := range s.posts {
		if !p.Published {
			continue
		}
		if category != "" && string(p.Category) != category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakePostStore) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listAuthorCalls++
	var out []domain.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakePostStore) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	for _, p := range s.posts {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakePostStore) Insert(ctx context.Context, p *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	s.posts[p.ID] = *p
	return nil
}

func (s *fakePostStore) Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.NotFound("post", id)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Excerpt != nil {
		p.Excerpt = patch.Excerpt
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.CoverImage != nil {
		p.CoverImage = patch.CoverImage
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
	p.UpdatedAt = time.Now()
	s.posts[id] = p
	cp := p
	return &cp, nil
}

func (s *fakePostStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.posts[id]; !ok {
		return domain.Gateway("posts.delete", errors.New("no rows deleted for post "+id))
	}
	delete(s.posts, id)
	return nil
}

type fakeCommentStore struct {
	mu        sync.Mutex
	comments  map[string]domain.Comment
	listCalls int
}

func (s *fakeCommentStore) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []domain.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeCommentStore) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.comments[id]; ok {
		cp := c
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeCommentStore) Insert(ctx context.Context, c *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.comments[c.ID] = *c
	return nil
}

func (s *fakeCommentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return domain.Gateway("comments.delete", errors.New("no rows deleted for comment "+id))
	}
	delete(s.comments, id)
	return nil
}

type fakeGateway struct {
	events   chan gateway.AuthEvent
	current  *domain.Session
	admins   map[string]bool
	posts    *fakePostStore
	comments *fakeCommentStore
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events:   make(chan gateway.AuthEvent, 16),
		admins:   map[string]bool{},
		posts:    &fakePostStore{posts: map[string]domain.Post{}},
		comments: &fakeCommentStore{comments: map[string]domain.Comment{}},
	}
}

func (f *fakeGateway) SubscribeAuth() (<-chan gateway.AuthEvent, func()) {
	return f.events, func() { close(f.events) }
}
func (f *fakeGateway) CurrentSession(ctx context.Context) (*domain.Session, error) {
	return f.current, nil
}
func (f *fakeGateway) SignInWithPassword(ctx context.Context, email, password string) error {
	return nil
}
func (f *fakeGateway) SignUp(ctx context.Context, email, password, redirectTo string) error {
	return nil
}
func (f *fakeGateway) SignOut(ctx context.Context) error { return nil }
func (f *fakeGateway) HasRole(ctx context.Context, userID, role string) (bool, error) {
	return f.admins[userID], nil
}
func (f *fakeGateway) Posts() gateway.PostStore       { return f.posts }
func (f *fakeGateway) Comments() gateway.CommentStore { return f.comments }

/* ---------- helpers ---------- */

func newTestContent(t *testing.T, signedIn bool) (*Content, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	if signedIn {
		gw.current = &domain.Session{
			UserID:    "owner",
			Email:     "owner@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
			RawToken:  "tok",
		}
		gw.admins["owner"] = true
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	qc := cache.NewWithClient(rdb, time.Minute)

	sess := session.New(gw, "http://localhost", zap.NewNop())
	require.NoError(t, sess.Initialize(context.Background()))
	t.Cleanup(sess.Close)

	if signedIn {
		require.Eventually(t, func() bool {
			return sess.State() == domain.AuthAuthenticated
		}, time.Second, time.Millisecond)
	}

	return NewContent(gw, qc, sess, zap.NewNop()), gw
}

func seedPost(gw *fakeGateway, id, slug string, category domain.Category, published bool, created time.Time) {
	gw.posts.posts[id] = domain.Post{
		ID:        id,
		Title:     "t-" + id,
		Slug:      slug,
		Content:   "c",
		Category:  category,
		AuthorID:  "owner",
		Published: published,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

/* ---------- posts ---------- */

func TestListPosts_FiltersAndCaches(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()
	now := time.Now()
	seedPost(gw, "p1", "s1", domain.CategoryTech, true, now.Add(-2*time.Hour))
	seedPost(gw, "p2", "s2", domain.CategoryTech, true, now.Add(-1*time.Hour))
	seedPost(gw, "p3", "s3", domain.CategoryCars, true, now)
	seedPost(gw, "p4", "s4", domain.CategoryTech, false, now) // draft

	posts, err := r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID, "newest first")
	assert.Equal(t, "p1", posts[1].ID)

	// "all" and empty apply no filter
	all, err := r.ListPosts(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	none, err := r.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, none, 3)

	_, err = r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.posts.listPublishedCalls, "tech once, all/empty share one key")
}

func TestCreatePost_GeneratesSlugAndInvalidates(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()

	_, err := r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	require.Equal(t, 1, gw.posts.listPublishedCalls)

	p, err := r.CreatePost(ctx, CreatePostInput{
		Title:     "Hello, World!",
		Content:   "body",
		Category:  domain.CategoryTech,
		Published: true,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^hello-world-[0-9a-z]+$`, p.Slug)
	assert.Equal(t, "owner", p.AuthorID, "author is always the current user")

	posts, err := r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.posts.listPublishedCalls, "creation must invalidate every posts variant")
	require.Len(t, posts, 1)
	assert.Equal(t, p.ID, posts[0].ID)
}

func TestCreatePost_ValidatesBeforeGateway(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()

	var ve *domain.ValidationError

	_, err := r.CreatePost(ctx, CreatePostInput{Title: "  ", Content: "c", Category: domain.CategoryTech})
	require.ErrorAs(t, err, &ve)

	_, err = r.CreatePost(ctx, CreatePostInput{Title: "t", Content: "", Category: domain.CategoryTech})
	require.ErrorAs(t, err, &ve)

	_, err = r.CreatePost(ctx, CreatePostInput{Title: "t", Content: "c", Category: "poetry"})
	require.ErrorAs(t, err, &ve)

	assert.Equal(t, 0, gw.posts.insertCalls, "validation fails fast, before any gateway call")
}

func TestCreatePost_RequiresSession(t *testing.T) {
	r, gw := newTestContent(t, false)
	_, err := r.CreatePost(context.Background(), CreatePostInput{
		Title: "t", Content: "c", Category: domain.CategoryTech,
	})
	var ae *domain.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, gw.posts.insertCalls)
}

func TestUpdatePost_SlugImmutableAndCacheRefreshed(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()
	seedPost(gw, "p1", "hello-world-abc", domain.CategoryTech, true, time.Now())

	got, err := r.GetPost(ctx, "hello-world-abc")
	require.NoError(t, err)
	require.Equal(t, 1, gw.posts.getCalls)
	require.Equal(t, "t-p1", got.Title)

	newTitle := "Renamed"
	updated, err := r.UpdatePost(ctx, "p1", domain.PostPatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-abc", updated.Slug, "slug survives every update")

	got, err = r.GetPost(ctx, "hello-world-abc")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.posts.getCalls, "update must invalidate the post's own key")
	assert.Equal(t, "Renamed", got.Title)
}

func TestDeletePost_InvalidatesListCache(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()
	seedPost(gw, "p1", "s1", domain.CategoryTech, true, time.Now())

	posts, err := r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, 1, gw.posts.listPublishedCalls)

	require.NoError(t, r.DeletePost(ctx, "p1"))

	posts, err = r.ListPosts(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.posts.listPublishedCalls, "list must re-fetch, not serve the stale cache")
	assert.Empty(t, posts)
}

func TestDeletePost_GatewayErrorVerbatim(t *testing.T) {
	r, gw := newTestContent(t, true)
	gw.posts.deleteErr = domain.Gateway("posts.delete", errors.New("permission denied for table posts"))

	err := r.DeletePost(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, "permission denied for table posts", err.Error(), "message passes through unmodified")
}

func TestDeletePost_RepeatedDeleteSurfacesError(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()
	seedPost(gw, "p1", "s1", domain.CategoryTech, true, time.Now())

	require.NoError(t, r.DeletePost(ctx, "p1"))
	err := r.DeletePost(ctx, "p1")
	var ge *domain.GatewayError
	require.ErrorAs(t, err, &ge, "double delete is reported, not swallowed")
}

func TestGetPost_NotFoundIsDistinct(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()

	_, err := r.GetPost(ctx, "nope")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	// absence is not cached: a later hit sees a freshly created post
	_, err = r.GetPost(ctx, "nope")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 2, gw.posts.getCalls)
}

func TestListAdminPosts_IncludesDrafts(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()
	now := time.Now()
	seedPost(gw, "p1", "s1", domain.CategoryTech, true, now.Add(-time.Hour))
	seedPost(gw, "p2", "s2", domain.CategoryTech, false, now)

	posts, err := r.ListAdminPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID, "drafts included, newest first")
}

/* ---------- comments ---------- */

func TestCreateComment_AnonymousAllowed(t *testing.T) {
	r, _ := newTestContent(t, true)
	ctx := context.Background()

	c, err := r.CreateComment(ctx, "p1", "nice post", nil)
	require.NoError(t, err)
	assert.Nil(t, c.UserID, "guest comments carry no owner reference")
	assert.Equal(t, "nice post", c.Content)
}

func TestCreateComment_ValidatesContent(t *testing.T) {
	r, gw := newTestContent(t, true)
	_, err := r.CreateComment(context.Background(), "p1", "   ", nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, gw.comments.comments)
}

func TestComments_ChronologicalAndInvalidated(t *testing.T) {
	r, gw := newTestContent(t, true)
	ctx := context.Background()

	first, err := r.CreateComment(ctx, "p1", "first", nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	uid := "owner"
	second, err := r.CreateComment(ctx, "p1", "second", &uid)
	require.NoError(t, err)

	comments, err := r.ListComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID, "oldest first")
	assert.Equal(t, second.ID, comments[1].ID)

	calls := gw.comments.listCalls
	require.NoError(t, r.DeleteComment(ctx, first.ID, "p1"))

	comments, err = r.ListComments(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, calls+1, gw.comments.listCalls, "delete invalidates the post's comment list")
	require.Len(t, comments, 1)
	assert.Equal(t, second.ID, comments[0].ID)
}

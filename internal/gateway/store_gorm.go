package gateway

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/BAZ1995/Theblog.io/internal/domain"
	"github.com/BAZ1995/Theblog.io/internal/feature/blog"
)

type postStore struct{ db *gorm.DB }

func (s *postStore) ListPublished(ctx context.Context, category string) ([]domain.Post, error) {
	q := s.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var ms []blog.PostModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, domain.Gateway("posts.list", err)
	}
	return postsToDomain(ms), nil
}

func (s *postStore) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	var ms []blog.PostModel
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, domain.Gateway("posts.list_author", err)
	}
	return postsToDomain(ms), nil
}

func (s *postStore) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var m blog.PostModel
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Gateway("posts.get", err)
	}
	p := postToDomain(m)
	return &p, nil
}

func (s *postStore) Insert(ctx context.Context, p *domain.Post) error {
	m := postFromDomain(*p)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Gateway("posts.insert", err)
	}
	*p = postToDomain(m)
	return nil
}

func (s *postStore) Update(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	vals := map[string]any{}
	if patch.Title != nil {
		vals["title"] = *patch.Title
	}
	if patch.Excerpt != nil {
		vals["excerpt"] = *patch.Excerpt
	}
	if patch.Content != nil {
		vals["content"] = *patch.Content
	}
	if patch.CoverImage != nil {
		vals["cover_image"] = *patch.CoverImage
	}
	if patch.Category != nil {
		vals["category"] = string(*patch.Category)
	}
	if patch.Published != nil {
		vals["published"] = *patch.Published
	}

	if len(vals) > 0 {
		res := s.db.WithContext(ctx).
			Model(&blog.PostModel{}).
			Where("id = ?", id).
			Updates(vals)
		if res.Error != nil {
			return nil, domain.Gateway("posts.update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.NotFound("post", id)
		}
	}

	var m blog.PostModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("post", id)
		}
		return nil, domain.Gateway("posts.update", err)
	}
	p := postToDomain(m)
	return &p, nil
}

func (s *postStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&blog.PostModel{})
	if res.Error != nil {
		return domain.Gateway("posts.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		// deleting an already-deleted id surfaces as a store error,
		// never silently swallowed
		return domain.Gateway("posts.delete", fmt.Errorf("no rows deleted for post %s", id))
	}
	return nil
}

type commentStore struct{ db *gorm.DB }

func (s *commentStore) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	var ms []blog.CommentModel
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, domain.Gateway("comments.list", err)
	}
	out := make([]domain.Comment, 0, len(ms))
	for _, m := range ms {
		out = append(out, commentToDomain(m))
	}
	return out, nil
}

func (s *commentStore) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	var m blog.CommentModel
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Gateway("comments.get", err)
	}
	c := commentToDomain(m)
	return &c, nil
}

func (s *commentStore) Insert(ctx context.Context, c *domain.Comment) error {
	m := commentFromDomain(*c)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Gateway("comments.insert", err)
	}
	*c = commentToDomain(m)
	return nil
}

func (s *commentStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&blog.CommentModel{})
	if res.Error != nil {
		return domain.Gateway("comments.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Gateway("comments.delete", fmt.Errorf("no rows deleted for comment %s", id))
	}
	return nil
}

/* ---------- conversions ---------- */

func postToDomain(m blog.PostModel) domain.Post {
	return domain.Post{
		ID:         m.ID,
		Title:      m.Title,
		Slug:       m.Slug,
		Excerpt:    m.Excerpt,
		Content:    m.Content,
		CoverImage: m.CoverImage,
		Category:   domain.Category(m.Category),
		AuthorID:   m.AuthorID,
		Published:  m.Published,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func postFromDomain(p domain.Post) blog.PostModel {
	return blog.PostModel{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Excerpt:    p.Excerpt,
		Content:    p.Content,
		CoverImage: p.CoverImage,
		Category:   string(p.Category),
		AuthorID:   p.AuthorID,
		Published:  p.Published,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func postsToDomain(ms []blog.PostModel) []domain.Post {
	out := make([]domain.Post, 0, len(ms))
	for _, m := range ms {
		out = append(out, postToDomain(m))
	}
	return out
}

func commentToDomain(m blog.CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		PostID:    m.PostID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func commentFromDomain(c domain.Comment) blog.CommentModel {
	return blog.CommentModel{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

package domain

import "time"

type Category string

const (
	CategoryTech        Category = "tech"
	CategoryPhotography Category = "photography"
	CategoryCars        Category = "cars"
)

// CategoryAll is a filter value, not a stored category.
const CategoryAll = "all"

func (c Category) Valid() bool {
	switch c {
	case CategoryTech, CategoryPhotography, CategoryCars:
		return true
	}
	return false
}

type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Excerpt    *string   `json:"excerpt"`
	Content    string    `json:"content"`
	CoverImage *string   `json:"coverImage"`
	Category   Category  `json:"category"`
	AuthorID   string    `json:"authorId"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Comment belongs to exactly one post. UserID is nil for guest comments.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    *string   `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostPatch is the writable field set for updates. Slug is generated
// once at creation and is never writable afterwards.
type PostPatch struct {
	Title      *string   `json:"title"`
	Excerpt    *string   `json:"excerpt"`
	Content    *string   `json:"content"`
	CoverImage *string   `json:"coverImage"`
	Category   *Category `json:"category"`
	Published  *bool     `json:"published"`
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// RoleAdmin is the single privileged role. Post authoring and site
// administration are the same trust tier in this product.
const RoleAdmin = "admin"

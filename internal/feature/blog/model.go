package blog

import (
	"time"

	"gorm.io/gorm"
)

type UserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:100;not null"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

// UserRoleModel mirrors the user_roles table the privileged role check
// reads. A row's presence grants the role.
type UserRoleModel struct {
	UserID    string    `gorm:"primaryKey;size:36"`
	Role      string    `gorm:"primaryKey;size:16"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserRoleModel) TableName() string { return "user_roles" }

type PostModel struct {
	ID         string  `gorm:"primaryKey;size:36"`
	Title      string  `gorm:"size:255;not null"`
	Slug       string  `gorm:"uniqueIndex;size:255;not null"`
	Excerpt    *string `gorm:"size:500"`
	Content    string  `gorm:"type:text;not null"`
	CoverImage *string `gorm:"size:500"`
	Category   string  `gorm:"size:16;not null;index"`
	AuthorID   string  `gorm:"size:36;not null;index"`
	Published  bool    `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Comments []CommentModel `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

func (PostModel) TableName() string { return "posts" }

type CommentModel struct {
	ID      string  `gorm:"primaryKey;size:36"`
	PostID  string  `gorm:"size:36;not null;index"`
	UserID  *string `gorm:"size:36;index"` // nil for guest comments
	Content string  `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CommentModel) TableName() string { return "comments" }

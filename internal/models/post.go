package models

import "time"

// Post is a piece of content owned by its author.
// LikesCount, CommentsCount and IsLiked are never stored; they are selected
// alongside the row by the repository.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index:idx_posts_author_created,priority:1"`
	Title     string    `json:"title" gorm:"size:200;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index;index:idx_posts_author_created,priority:2"`
	UpdatedAt time.Time `json:"updated_at"`

	LikesCount    int64 `json:"likes_count" gorm:"->;-:migration"`
	CommentsCount int64 `json:"comments_count" gorm:"->;-:migration"`
	IsLiked       bool  `json:"is_liked" gorm:"->;-:migration"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// UpdatePostRequest defines the request body for updating an existing post.
// Nil fields are left untouched.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
}

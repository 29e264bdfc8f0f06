package models

import "time"

// Like represents a like on a post. At most one row per (post, user).
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_post_user_like"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_post_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an actor record of the identity directory. The social core only
// references users by ID.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100"`
	Email       string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Bio         string    `json:"bio"`
	Password    string    `json:"-"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"` // nullable so local accounts don't collide
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the author/actor shape embedded in post and notification responses
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, Name: u.Name}
}

type CreateLocalUserRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio  string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

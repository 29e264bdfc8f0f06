package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindForbidden
	KindNotFound
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every operation of the social core.
// Two Errors match under errors.Is when their codes are equal, so a wrapped
// storage failure still matches ErrStorage.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation           = &Error{Kind: KindValidation, Code: "validation", Message: "invalid input"}
	ErrInvalidCursor        = &Error{Kind: KindValidation, Code: "invalid_cursor", Message: "invalid page cursor"}
	ErrSelfFollow           = &Error{Kind: KindConflict, Code: "self_follow", Message: "you cannot follow yourself"}
	ErrAlreadyFollowing     = &Error{Kind: KindConflict, Code: "already_following", Message: "you are already following this user"}
	ErrNotFollowing         = &Error{Kind: KindConflict, Code: "not_following", Message: "you are not following this user"}
	ErrAlreadyLiked         = &Error{Kind: KindConflict, Code: "already_liked", Message: "you have already liked this post"}
	ErrNotLiked             = &Error{Kind: KindConflict, Code: "not_liked", Message: "you have not liked this post"}
	ErrForbidden            = &Error{Kind: KindForbidden, Code: "forbidden", Message: "you do not own this resource"}
	ErrUserNotFound         = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "user not found"}
	ErrPostNotFound         = &Error{Kind: KindNotFound, Code: "post_not_found", Message: "post not found"}
	ErrCommentNotFound      = &Error{Kind: KindNotFound, Code: "comment_not_found", Message: "comment not found"}
	ErrNotificationNotFound = &Error{Kind: KindNotFound, Code: "notification_not_found", Message: "notification not found"}
	ErrStorage              = &Error{Kind: KindStorage, Code: "storage", Message: "storage failure"}
)

// storageError wraps an unexpected store fault. Typed errors pass through untouched.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindStorage, Code: ErrStorage.Code, Message: op, Err: err}
}

// KindOf reports the Kind of err, or KindStorage for anything untyped.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindStorage
}

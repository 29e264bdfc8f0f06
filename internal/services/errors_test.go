package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestStorageErrorWrapsAndMatches(t *testing.T) {
	cause := errors.New("connection reset")
	err := storageError("like", cause)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should stay reachable")
	}
	if KindOf(err) != KindStorage {
		t.Fatalf("expected storage kind")
	}
	if storageError("noop", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if storageError("like", ErrAlreadyLiked) != ErrAlreadyLiked {
		t.Fatalf("typed errors pass through")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrValidation, KindValidation},
		{ErrInvalidCursor, KindValidation},
		{ErrSelfFollow, KindConflict},
		{ErrNotLiked, KindConflict},
		{ErrForbidden, KindForbidden},
		{fmt.Errorf("ctx: %w", ErrPostNotFound), KindNotFound},
		{errors.New("boom"), KindStorage},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Fatalf("KindOf(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

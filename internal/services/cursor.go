package services

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// PageRequest is what callers hand to list operations. Cursor is opaque.
type PageRequest struct {
	Cursor string
	Limit  int
}

// Page is one slice of a newest-first listing. NextCursor is empty on the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// EncodeCursor packs the (created_at, id) ordering key of the last row seen.
func EncodeCursor(createdAt time.Time, id uint) string {
	raw := strconv.FormatInt(createdAt.UnixMicro(), 10) + ":" + strconv.FormatUint(uint64(id), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor returns nil for the empty cursor (first page).
func DecodeCursor(s string) (*repositories.Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil, ErrInvalidCursor
	}
	micros, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return nil, ErrInvalidCursor
	}
	return &repositories.Cursor{CreatedAt: time.UnixMicro(micros).UTC(), ID: uint(n)}, nil
}

// Paging clamps page sizes.
type Paging struct {
	Default int
	Max     int
}

func (p Paging) limit(requested int) int {
	def, max := p.Default, p.Max
	if def <= 0 {
		def = DefaultPageSize
	}
	if max <= 0 {
		max = MaxPageSize
	}
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// paginate trims the look-ahead row fetched by the repository and derives the next cursor.
func paginate[T any](rows []T, limit int, key func(T) (time.Time, uint)) Page[T] {
	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		ts, id := key(page.Items[limit-1])
		page.NextCursor = EncodeCursor(ts, id)
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

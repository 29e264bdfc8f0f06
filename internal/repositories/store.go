package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup or a targeted delete matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Cursor is a decoded keyset position on (created_at, id).
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// Store groups the relational repositories over one *gorm.DB, which is
// either the connection pool or an open transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Follows       FollowRepository
	Posts         PostRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Notifications NotificationRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewPostgresUserRepository(db),
		Follows:       NewPostgresFollowRepository(db),
		Posts:         NewPostgresPostRepository(db),
		Comments:      NewPostgresCommentRepository(db),
		Likes:         NewPostgresLikeRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single transaction. A non-nil
// return from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AutoMigrate creates the relational schema from the models. Production
// uses the SQL migrations; tests and local runs use this.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	}
	return err
}

// newestFirst applies keyset pagination for a created_at DESC, id DESC listing.
func newestFirst(q *gorm.DB, table string, after *Cursor, limit int) *gorm.DB {
	if after != nil {
		q = q.Where("("+table+".created_at < ? OR ("+table+".created_at = ? AND "+table+".id < ?))",
			after.CreatedAt, after.CreatedAt, after.ID)
	}
	q = q.Order(table + ".created_at DESC").Order(table + ".id DESC")
	if limit > 0 {
		// one look-ahead row tells the caller whether another page exists
		q = q.Limit(limit + 1)
	}
	return q
}

// oldestFirst is the ascending counterpart of newestFirst.
func oldestFirst(q *gorm.DB, table string, after *Cursor, limit int) *gorm.DB {
	if after != nil {
		q = q.Where("("+table+".created_at > ? OR ("+table+".created_at = ? AND "+table+".id > ?))",
			after.CreatedAt, after.CreatedAt, after.ID)
	}
	q = q.Order(table + ".created_at ASC").Order(table + ".id ASC")
	if limit > 0 {
		q = q.Limit(limit + 1)
	}
	return q
}

package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostView(ctx context.Context, id, viewerID uint) (*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
}

// PostQuery selects a newest-first slice of posts.
type PostQuery struct {
	// FolloweesOf restricts to posts authored by accounts this user follows.
	FolloweesOf uint
	AuthorID    uint
	// Search is matched case-insensitively against title and content.
	Search   string
	ViewerID uint
	After    *Cursor
	Limit    int
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// withCounts selects the post row together with its computed counters and
// whether viewerID has liked it.
func (r *PostgresPostRepository) withCounts(ctx context.Context, viewerID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Post{}).Select(
		"posts.*, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, "+
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, "+
			"EXISTS (SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked",
		viewerID,
	)
}

// CreatePost creates a new post
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

// GetPostByID retrieves the bare post row
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// GetPostView retrieves a post with likes_count, comments_count and is_liked filled in
func (r *PostgresPostRepository) GetPostView(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	var post models.Post
	if err := r.withCounts(ctx, viewerID).Where("posts.id = ?", id).Take(&post).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ListPosts returns up to q.Limit+1 posts, created_at DESC, id DESC
func (r *PostgresPostRepository) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	query := r.withCounts(ctx, q.ViewerID)
	if q.FolloweesOf != 0 {
		query = query.Where("posts.author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", q.FolloweesOf))
	}
	if q.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", q.AuthorID)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?)", pattern, pattern)
	}

	var posts []models.Post
	if err := newestFirst(query, "posts", q.After, q.Limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost persists title, content and updated_at
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":      post.Title,
		"content":    post.Content,
		"updated_at": post.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes only the post row; callers remove dependents first
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

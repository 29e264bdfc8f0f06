package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

// ContentService owns posts, comments and likes. Counters are never stored;
// every read counts the underlying rows.
type ContentService struct {
	store      *repositories.Store
	dispatcher *Dispatcher
	paging     Paging
	now        func() time.Time
}

func NewContentService(store *repositories.Store, dispatcher *Dispatcher, paging Paging) *ContentService {
	return &ContentService{store: store, dispatcher: dispatcher, paging: paging, now: utcNow}
}

func (s *ContentService) CreatePost(ctx context.Context, authorID uint, title, content string) (*models.Post, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrValidation
	}
	now := s.now()
	post := &models.Post{AuthorID: authorID, Title: title, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Posts.CreatePost(ctx, post); err != nil {
		return nil, storageError("create post", err)
	}
	return post, nil
}

// GetPost returns the post with its counters and whether viewerID liked it.
func (s *ContentService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.store.Posts.GetPostView(ctx, postID, viewerID)
	if err != nil {
		return nil, notFound("get post", err, ErrPostNotFound)
	}
	return post, nil
}

// ListPosts lists every post newest first, optionally filtered by a search term.
func (s *ContentService) ListPosts(ctx context.Context, viewerID uint, search string, page PageRequest) (Page[models.Post], error) {
	after, err := DecodeCursor(page.Cursor)
	if err != nil {
		return Page[models.Post]{}, err
	}
	limit := s.paging.limit(page.Limit)
	rows, err := s.store.Posts.ListPosts(ctx, repositories.PostQuery{
		Search:   search,
		ViewerID: viewerID,
		After:    after,
		Limit:    limit,
	})
	if err != nil {
		return Page[models.Post]{}, storageError("list posts", err)
	}
	return paginate(rows, limit, postKey), nil
}

// UpdatePost applies the non-nil fields of req. Only the author may update.
func (s *ContentService) UpdatePost(ctx context.Context, postID, actorID uint, req models.UpdatePostRequest) (*models.Post, error) {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound("get post", err, ErrPostNotFound)
		}
		if post.AuthorID != actorID {
			return ErrForbidden
		}
		if req.Title != nil {
			post.Title = strings.TrimSpace(*req.Title)
		}
		if req.Content != nil {
			post.Content = strings.TrimSpace(*req.Content)
		}
		if post.Title == "" || post.Content == "" {
			return ErrValidation
		}
		post.UpdatedAt = s.now()
		return tx.Posts.UpdatePost(ctx, post)
	})
	if err != nil {
		return nil, storageError("update post", err)
	}
	return s.GetPost(ctx, postID, actorID)
}

// DeletePost removes the post together with its comments, likes and every
// notification that points at the post or one of its comments.
func (s *ContentService) DeletePost(ctx context.Context, postID, actorID uint) error {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound("get post", err, ErrPostNotFound)
		}
		if post.AuthorID != actorID {
			return ErrForbidden
		}
		commentIDs, err := tx.Comments.IDsByPostID(ctx, postID)
		if err != nil {
			return err
		}
		if err := tx.Notifications.DeleteByTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		if err := tx.Notifications.DeleteByTargets(ctx, models.TargetPost, []uint{postID}); err != nil {
			return err
		}
		if err := tx.Comments.DeleteByPostID(ctx, postID); err != nil {
			return err
		}
		if err := tx.Likes.DeleteByPostID(ctx, postID); err != nil {
			return err
		}
		return tx.Posts.DeletePost(ctx, postID)
	})
	return storageError("delete post", err)
}

// AddComment stores a comment and notifies the post author unless the
// commenter is the author.
func (s *ContentService) AddComment(ctx context.Context, postID, authorID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrValidation
	}
	now := s.now()
	comment := &models.Comment{PostID: postID, AuthorID: authorID, Content: content, CreatedAt: now, UpdatedAt: now}

	var note *models.Notification
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound("get post", err, ErrPostNotFound)
		}
		if err := tx.Comments.CreateComment(ctx, comment); err != nil {
			return err
		}
		note, err = s.dispatcher.Append(ctx, tx, commentNotification(post, comment))
		return err
	})
	if err != nil {
		return nil, storageError("add comment", err)
	}
	s.dispatcher.Publish(ctx, note)
	return comment, nil
}

// ListComments lists the comments of a post, oldest first.
func (s *ContentService) ListComments(ctx context.Context, postID uint, page PageRequest) (Page[models.Comment], error) {
	after, err := DecodeCursor(page.Cursor)
	if err != nil {
		return Page[models.Comment]{}, err
	}
	if _, err := s.store.Posts.GetPostByID(ctx, postID); err != nil {
		return Page[models.Comment]{}, notFound("get post", err, ErrPostNotFound)
	}
	limit := s.paging.limit(page.Limit)
	rows, err := s.store.Comments.ListByPostID(ctx, postID, after, limit)
	if err != nil {
		return Page[models.Comment]{}, storageError("list comments", err)
	}
	return paginate(rows, limit, func(c models.Comment) (time.Time, uint) { return c.CreatedAt, c.ID }), nil
}

func (s *ContentService) UpdateComment(ctx context.Context, commentID, actorID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrValidation
	}
	var comment *models.Comment
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		comment, err = tx.Comments.GetCommentByID(ctx, commentID)
		if err != nil {
			return notFound("get comment", err, ErrCommentNotFound)
		}
		if comment.AuthorID != actorID {
			return ErrForbidden
		}
		comment.Content = content
		comment.UpdatedAt = s.now()
		return tx.Comments.UpdateComment(ctx, comment)
	})
	if err != nil {
		return nil, storageError("update comment", err)
	}
	return comment, nil
}

// DeleteComment removes a comment and the notification it produced.
func (s *ContentService) DeleteComment(ctx context.Context, commentID, actorID uint) error {
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		comment, err := tx.Comments.GetCommentByID(ctx, commentID)
		if err != nil {
			return notFound("get comment", err, ErrCommentNotFound)
		}
		if comment.AuthorID != actorID {
			return ErrForbidden
		}
		if err := tx.Notifications.DeleteByTargets(ctx, models.TargetComment, []uint{commentID}); err != nil {
			return err
		}
		return tx.Comments.DeleteComment(ctx, commentID)
	})
	return storageError("delete comment", err)
}

// Like records userID's like on postID. The unique (post_id, user_id) index
// decides concurrent attempts; the loser gets ErrAlreadyLiked.
func (s *ContentService) Like(ctx context.Context, postID, userID uint) (*models.Like, error) {
	like := &models.Like{PostID: postID, UserID: userID, CreatedAt: s.now()}
	var note *models.Notification
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetPostByID(ctx, postID)
		if err != nil {
			return notFound("get post", err, ErrPostNotFound)
		}
		if err := tx.Likes.CreateLike(ctx, like); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyLiked
			}
			return err
		}
		note, err = s.dispatcher.Append(ctx, tx, likeNotification(post, like))
		return err
	})
	if err != nil {
		return nil, storageError("like", err)
	}
	s.dispatcher.Publish(ctx, note)
	return like, nil
}

// Unlike removes the like. No notification is emitted.
func (s *ContentService) Unlike(ctx context.Context, postID, userID uint) error {
	if _, err := s.store.Posts.GetPostByID(ctx, postID); err != nil {
		return notFound("get post", err, ErrPostNotFound)
	}
	if err := s.store.Likes.DeleteLike(ctx, postID, userID); err != nil {
		return notFound("unlike", err, ErrNotLiked)
	}
	return nil
}

func (s *ContentService) LikesCount(ctx context.Context, postID uint) (int64, error) {
	if _, err := s.store.Posts.GetPostByID(ctx, postID); err != nil {
		return 0, notFound("get post", err, ErrPostNotFound)
	}
	n, err := s.store.Likes.GetLikesCountByPostID(ctx, postID)
	if err != nil {
		return 0, storageError("likes count", err)
	}
	return n, nil
}

func (s *ContentService) CommentsCount(ctx context.Context, postID uint) (int64, error) {
	if _, err := s.store.Posts.GetPostByID(ctx, postID); err != nil {
		return 0, notFound("get post", err, ErrPostNotFound)
	}
	n, err := s.store.Comments.CountByPostID(ctx, postID)
	if err != nil {
		return 0, storageError("comments count", err)
	}
	return n, nil
}

func postKey(p models.Post) (time.Time, uint) { return p.CreatedAt, p.ID }

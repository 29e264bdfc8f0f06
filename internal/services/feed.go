package services

import (
	"context"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

// FeedService assembles timelines at read time from the follow graph and
// the posts table. Nothing is materialised per follower.
type FeedService struct {
	store  *repositories.Store
	paging Paging
}

func NewFeedService(store *repositories.Store, paging Paging) *FeedService {
	return &FeedService{store: store, paging: paging}
}

// Feed returns posts authored by the accounts actorID follows, newest first.
func (s *FeedService) Feed(ctx context.Context, actorID uint, page PageRequest) (Page[models.Post], error) {
	return s.list(ctx, repositories.PostQuery{FolloweesOf: actorID, ViewerID: actorID}, page)
}

// UserPosts returns one author's posts with the same ordering as Feed.
func (s *FeedService) UserPosts(ctx context.Context, authorID, viewerID uint, page PageRequest) (Page[models.Post], error) {
	if _, err := s.store.Users.GetUserByID(ctx, authorID); err != nil {
		return Page[models.Post]{}, notFound("get user", err, ErrUserNotFound)
	}
	return s.list(ctx, repositories.PostQuery{AuthorID: authorID, ViewerID: viewerID}, page)
}

func (s *FeedService) list(ctx context.Context, q repositories.PostQuery, page PageRequest) (Page[models.Post], error) {
	after, err := DecodeCursor(page.Cursor)
	if err != nil {
		return Page[models.Post]{}, err
	}
	q.After = after
	q.Limit = s.paging.limit(page.Limit)
	rows, err := s.store.Posts.ListPosts(ctx, q)
	if err != nil {
		return Page[models.Post]{}, storageError("list feed", err)
	}
	return paginate(rows, q.Limit, postKey), nil
}

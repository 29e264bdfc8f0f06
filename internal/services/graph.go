package services

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

// GraphService owns the directed follow edges between actors.
type GraphService struct {
	store      *repositories.Store
	dispatcher *Dispatcher
	now        func() time.Time
}

func NewGraphService(store *repositories.Store, dispatcher *Dispatcher) *GraphService {
	return &GraphService{store: store, dispatcher: dispatcher, now: utcNow}
}

// FollowCounts is the pair shown on a profile.
type FollowCounts struct {
	Followers int64 `json:"followers_count"`
	Following int64 `json:"following_count"`
}

// Follow creates the edge follower -> followee and notifies the followee.
// The unique (follower_id, followee_id) index decides concurrent attempts.
func (s *GraphService) Follow(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	if followerID == followeeID {
		return nil, ErrSelfFollow
	}
	if err := s.requireUser(ctx, followeeID); err != nil {
		return nil, err
	}

	follow := &models.Follow{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: s.now()}
	var note *models.Notification
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Follows.CreateFollow(ctx, follow); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyFollowing
			}
			return err
		}
		var err error
		note, err = s.dispatcher.Append(ctx, tx, followNotification(follow))
		return err
	})
	if err != nil {
		return nil, storageError("follow", err)
	}
	s.dispatcher.Publish(ctx, note)
	return follow, nil
}

// Unfollow removes the edge. No notification is emitted. An unknown
// followee is ErrUserNotFound, as for Follow.
func (s *GraphService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if err := s.requireUser(ctx, followeeID); err != nil {
		return err
	}
	if err := s.store.Follows.DeleteFollow(ctx, followerID, followeeID); err != nil {
		return notFound("unfollow", err, ErrNotFollowing)
	}
	return nil
}

func (s *GraphService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	ok, err := s.store.Follows.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return false, storageError("is following", err)
	}
	return ok, nil
}

// Followees returns the ids actorID follows.
func (s *GraphService) Followees(ctx context.Context, actorID uint) ([]uint, error) {
	ids, err := s.store.Follows.GetFollowingIDs(ctx, actorID)
	if err != nil {
		return nil, storageError("followees", err)
	}
	return ids, nil
}

// FolloweeUsers lists the accounts userID follows.
func (s *GraphService) FolloweeUsers(ctx context.Context, userID uint) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.store.Follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, storageError("followee users", err)
	}
	return users, nil
}

// Followers lists the accounts following userID.
func (s *GraphService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.store.Follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, storageError("followers", err)
	}
	return users, nil
}

func (s *GraphService) Counts(ctx context.Context, userID uint) (FollowCounts, error) {
	var c FollowCounts
	var err error
	if c.Followers, err = s.store.Follows.GetFollowersCount(ctx, userID); err != nil {
		return c, storageError("followers count", err)
	}
	if c.Following, err = s.store.Follows.GetFollowingCount(ctx, userID); err != nil {
		return c, storageError("following count", err)
	}
	return c, nil
}

func (s *GraphService) requireUser(ctx context.Context, id uint) error {
	if _, err := s.store.Users.GetUserByID(ctx, id); err != nil {
		return notFound("get user", err, ErrUserNotFound)
	}
	return nil
}

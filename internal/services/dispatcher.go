package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/broker"
	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"go.uber.org/zap"
)

const (
	verbFollow  = "started following you"
	verbLike    = "liked your post '%s'"
	verbComment = "commented on your post '%s'"
)

// Dispatcher attaches notification side effects to graph and content
// mutations. Append runs inside the mutation's transaction; Publish runs
// after commit and never fails the caller.
type Dispatcher struct {
	publisher broker.Publisher
	log       *logger.Logger
}

// NewDispatcher creates a Dispatcher. A nil publisher means no push pipeline.
func NewDispatcher(p broker.Publisher) *Dispatcher {
	if p == nil {
		p = broker.NoopPublisher{}
	}
	return &Dispatcher{publisher: p, log: logger.New()}
}

// Append stores n through tx. A notification addressed to its own actor is
// suppressed and Append returns nil, nil.
func (d *Dispatcher) Append(ctx context.Context, tx *repositories.Store, n *models.Notification) (*models.Notification, error) {
	if n.ActorID == n.RecipientID {
		return nil, nil
	}
	if err := tx.Notifications.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish hands committed notifications to the push pipeline, fire once.
// Nil entries (suppressed notifications) are skipped.
func (d *Dispatcher) Publish(ctx context.Context, notes ...*models.Notification) {
	events := make([]broker.NotificationEvent, 0, len(notes))
	for _, n := range notes {
		if n != nil {
			events = append(events, broker.NewNotificationEvent(n))
		}
	}
	if len(events) == 0 {
		return
	}
	// the request may be finished by now; the publish has its own deadline
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := d.publisher.Publish(ctx, events...); err != nil {
		d.log.Warn("dispatcher", "notification publish failed, push skipped",
			zap.Int("events", len(events)), zap.String("error", logger.Anonymize(err.Error())))
	}
}

func followNotification(follow *models.Follow) *models.Notification {
	return &models.Notification{
		RecipientID: follow.FolloweeID,
		ActorID:     follow.FollowerID,
		Verb:        verbFollow,
		Type:        models.NotificationTypeFollow,
		CreatedAt:   follow.CreatedAt,
	}
}

func likeNotification(post *models.Post, like *models.Like) *models.Notification {
	target := post.ID
	return &models.Notification{
		RecipientID: post.AuthorID,
		ActorID:     like.UserID,
		Verb:        fmt.Sprintf(verbLike, post.Title),
		Type:        models.NotificationTypeLike,
		TargetID:    &target,
		TargetType:  models.TargetPost,
		CreatedAt:   like.CreatedAt,
	}
}

func commentNotification(post *models.Post, comment *models.Comment) *models.Notification {
	target := comment.ID
	return &models.Notification{
		RecipientID: post.AuthorID,
		ActorID:     comment.AuthorID,
		Verb:        fmt.Sprintf(verbComment, post.Title),
		Type:        models.NotificationTypeComment,
		TargetID:    &target,
		TargetType:  models.TargetComment,
		CreatedAt:   comment.CreatedAt,
	}
}

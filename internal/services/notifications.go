package services

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

// NotificationService exposes the notification ledger to its recipients.
// The only state change is unread -> read.
type NotificationService struct {
	store  *repositories.Store
	paging Paging
}

func NewNotificationService(store *repositories.Store, paging Paging) *NotificationService {
	return &NotificationService{store: store, paging: paging}
}

func (s *NotificationService) List(ctx context.Context, recipientID uint, page PageRequest) (Page[models.Notification], error) {
	after, err := DecodeCursor(page.Cursor)
	if err != nil {
		return Page[models.Notification]{}, err
	}
	limit := s.paging.limit(page.Limit)
	rows, err := s.store.Notifications.ListByRecipient(ctx, recipientID, after, limit)
	if err != nil {
		return Page[models.Notification]{}, storageError("list notifications", err)
	}
	return paginate(rows, limit, func(n models.Notification) (time.Time, uint) { return n.CreatedAt, n.ID }), nil
}

// Get returns one notification; only its recipient may read it.
func (s *NotificationService) Get(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	n, err := s.store.Notifications.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("get notification", err, ErrNotificationNotFound)
	}
	if n.RecipientID != recipientID {
		return nil, ErrForbidden
	}
	return n, nil
}

// MarkRead marks one notification read. Marking an already read one is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	n, err := s.Get(ctx, id, recipientID)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.store.Notifications.MarkAsRead(ctx, id); err != nil {
		return nil, storageError("mark read", err)
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead marks every unread notification of recipientID and reports how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	n, err := s.store.Notifications.MarkAllAsRead(ctx, recipientID)
	if err != nil {
		return 0, storageError("mark all read", err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	n, err := s.store.Notifications.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return 0, storageError("unread count", err)
	}
	return n, nil
}

package models

import "time"

type NotificationType string

const (
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeMention NotificationType = "mention"
)

type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Notification is an append-only ledger entry. Only IsRead ever changes,
// and only from false to true.
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"not null;index:idx_notifications_recipient_created,priority:1"`
	ActorID     uint             `json:"actor_id" gorm:"not null;index"`
	Verb        string           `json:"verb" gorm:"size:255;not null"`
	Type        NotificationType `json:"notification_type" gorm:"column:notification_type;size:20;not null"`
	TargetID    *uint            `json:"target_id,omitempty"`
	TargetType  TargetType       `json:"target_type,omitempty" gorm:"size:20"`
	IsRead      bool             `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index:idx_notifications_recipient_created,priority:2"`
}

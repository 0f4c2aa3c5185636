package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeNotificationCreated = "notification.created"
	EventTypeServiceDisabled     = "renewal.service_disabled"
)

// NotificationCreatedEvent fires after an in-app notification is
// persisted; the mail dispatcher picks it up for delivery.
type NotificationCreatedEvent struct {
	BaseEvent
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	EntryID        int64  `json:"entry_id"`
}

func NewNotificationCreatedEvent(notificationID, userID int64, email, subject, body string, entryID int64) *NotificationCreatedEvent {
	return &NotificationCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNotificationCreated,
			Timestamp: time.Now(),
		},
		NotificationID: notificationID,
		UserID:         userID,
		Email:          email,
		Subject:        subject,
		Body:           body,
		EntryID:        entryID,
	}
}

// ServiceDisabledEvent records an operator turning a service off ahead of
// its renewal.
type ServiceDisabledEvent struct {
	BaseEvent
	EntryID     int64     `json:"entry_id"`
	Particulars string    `json:"particulars"`
	DisabledAt  time.Time `json:"disabled_at"`
	DisabledBy  int64     `json:"disabled_by"`
}

func NewServiceDisabledEvent(entryID int64, particulars string, disabledAt time.Time, disabledBy int64) *ServiceDisabledEvent {
	return &ServiceDisabledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeServiceDisabled,
			Timestamp: time.Now(),
		},
		EntryID:     entryID,
		Particulars: particulars,
		DisabledAt:  disabledAt,
		DisabledBy:  disabledBy,
	}
}

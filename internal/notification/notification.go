// Package notification persists in-app notifications and delivers their
// email copies through a worker pool.
package notification

import (
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Notification struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	UserID    int64      `json:"user_id" gorm:"column:user_id;index;not null"`
	EntryID   int64      `json:"entry_id" gorm:"column:entry_id;index"`
	Subject   string     `json:"subject" gorm:"column:subject;not null"`
	Body      string     `json:"body" gorm:"column:body"`
	ReadAt    *time.Time `json:"read_at,omitempty" gorm:"column:read_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Notification) TableName() string {
	return "notifications"
}

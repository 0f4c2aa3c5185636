// Package renewal drives the subscription lifecycle: reminder and
// auto-cancel notices ahead of each renewal, the rollover that opens the
// next cycle, and the append-only decision log that gates notifications.
package renewal

import (
	"errors"
	"time"
)

// Actions a human can record against an upcoming renewal. One log row for
// the current cycle silences further notifications for that cycle.
const (
	ActionContinue     = "Continue"
	ActionCancel       = "Cancel"
	ActionDisableByMIS = "DisableByMIS"
)

var (
	ErrInvalidAction  = errors.New("invalid renewal action")
	ErrMissingEntryID = errors.New("renewal log requires an entry id")
)

// RenewalLog is append-only: decisions are recorded, never edited.
type RenewalLog struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	EntryID        int64     `json:"entry_id" gorm:"column:entry_id;index;not null"`
	ServiceHandler string    `json:"service_handler" gorm:"column:service_handler"`
	Action         string    `json:"action" gorm:"column:action;not null"`
	Reason         string    `json:"reason" gorm:"column:reason"`
	RenewalDate    time.Time `json:"renewal_date" gorm:"column:renewal_date;type:date;not null"`
	CreatedBy      int64     `json:"created_by" gorm:"column:created_by"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (RenewalLog) TableName() string {
	return "renewal_logs"
}

// CreateLogDTO records a decision for an entry's current renewal cycle.
type CreateLogDTO struct {
	EntryID int64  `json:"entry_id"`
	Action  string `json:"action"`
	Reason  string `json:"reason"`
}

func ValidAction(action string) bool {
	switch action {
	case ActionContinue, ActionCancel, ActionDisableByMIS:
		return true
	}
	return false
}

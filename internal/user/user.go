package user

import (
	"errors"
	"strings"
	"time"
)

// Roles mirror the token roles issued by the identity service. admin and
// mis review and auto-accept entries, handler users own individual
// services and receive renewal reminders, finance gets the oversight
// copies of auto-cancel notices.
const (
	RoleAdmin   = "admin"
	RoleMIS     = "mis"
	RoleHandler = "handler"
	RoleFinance = "finance"
)

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name" gorm:"column:name;not null"`
	Email         string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	PasswordHash  string    `json:"-" gorm:"column:password_hash"`
	Role          string    `json:"role" gorm:"column:role;not null"`
	BusinessUnits []string  `json:"business_units" gorm:"column:business_units;serializer:json"`
	IsActive      bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

// BelongsTo reports business-unit membership, compared loosely since unit
// names arrive from spreadsheets as well as tokens.
func (u *User) BelongsTo(businessUnit string) bool {
	for _, bu := range u.BusinessUnits {
		if strings.EqualFold(bu, businessUnit) {
			return true
		}
	}
	return false
}

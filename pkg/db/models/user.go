package models

import (
	"time"

	"github.com/playpalm/playpalm-backend/pkg/enums"
)

// User represents an operator account.
type User struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Username      string     `gorm:"column:username;not null;uniqueIndex"`
	Email         *string    `gorm:"column:email"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name;not null"`
	Role          enums.Role `gorm:"column:role;not null"`
	ContactNumber *string    `gorm:"column:contact_number"`
	Location      *string    `gorm:"column:location"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "app_users" }

package model

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a local user
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is a local account, optionally linked to one Stripe customer
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email            string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name             string    `gorm:"size:255" json:"name"`
	AvatarURL        *string   `gorm:"size:1024" json:"avatar_url,omitempty"`
	Role             UserRole  `gorm:"size:20;not null;default:'user'" json:"role"`
	StripeCustomerID *string   `gorm:"uniqueIndex;size:100" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

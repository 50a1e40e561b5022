package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleWorker || r == RoleAdmin
}

// Rating is a running average kept next to its sample count
type Rating struct {
	Average float64 `gorm:"not null;default:0" json:"average"`
	Count   int     `gorm:"not null;default:0" json:"count"`
}

// Location is an address with optional coordinates
type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// User represents an account on the platform. Emails are stored lower-cased.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(120);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Phone        string     `gorm:"type:varchar(20)" json:"phone"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	IsVerified   bool       `gorm:"not null;default:false" json:"is_verified"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	Location     Location   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Rating       Rating     `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

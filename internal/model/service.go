package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MinServiceDuration is the shortest duration a catalog entry may advertise, in minutes
const MinServiceDuration = 30

// Service is a catalog entry customers can book. Deleted entries are kept so
// bookings made against them still resolve; the name frees up for reuse.
type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(120);uniqueIndex:idx_services_name_live,where:deleted_at IS NULL;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    ServiceKind     `gorm:"type:varchar(30);not null;index" json:"category"`
	MinPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"min_price"`
	MaxPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"max_price"`
	MinDuration int             `gorm:"not null" json:"min_duration"`
	MaxDuration int             `gorm:"not null" json:"max_duration"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`
	Popularity  int             `gorm:"not null;default:0" json:"popularity"`
	Rating      Rating          `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// RangeErrors returns field-level problems with the price and duration ranges
func (s *Service) RangeErrors() map[string]string {
	errs := map[string]string{}
	if s.MinPrice.IsNegative() {
		errs["min_price"] = "must not be negative"
	}
	if s.MinPrice.GreaterThan(s.MaxPrice) {
		errs["max_price"] = "must be greater than or equal to min_price"
	}
	if s.MinDuration < MinServiceDuration {
		errs["min_duration"] = "must be at least 30 minutes"
	}
	if s.MinDuration > s.MaxDuration {
		errs["max_duration"] = "must be greater than or equal to min_duration"
	}
	if !s.Category.Valid() {
		errs["category"] = "unknown category"
	}
	return errs
}

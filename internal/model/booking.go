package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

// Payment status is recorded but not driven by any payment integration.
const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Customer is either a registered account or a guest's contact details
type Customer interface {
	isCustomer()
}

type RegisteredCustomer struct {
	UserID uuid.UUID
}

type GuestCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (RegisteredCustomer) isCustomer() {}
func (GuestCustomer) isCustomer()      {}

type Charge struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type Pricing struct {
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	DurationMinutes   int             `json:"duration_minutes"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	AdditionalCharges []Charge        `json:"additional_charges"`
	Total             decimal.Decimal `json:"total"`
}

// NewPricing computes round(rate * minutes / 60) with no additional charges
func NewPricing(rate decimal.Decimal, minutes int) Pricing {
	base := rate.Mul(decimal.NewFromInt(int64(minutes))).Div(decimal.NewFromInt(60)).Round(0)
	return Pricing{
		HourlyRate:        rate,
		DurationMinutes:   minutes,
		BaseAmount:        base,
		AdditionalCharges: []Charge{},
		Total:             base,
	}
}

type TimelineEntry struct {
	Status    BookingStatus `json:"status"`
	ActorID   *uuid.UUID    `json:"actor_id,omitempty"`
	ActorRole ActorRole     `json:"actor_role"`
	Note      string        `json:"note,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Cancellation struct {
	Reason      string    `json:"reason"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// Booking is a scheduled job between a customer and a worker.
// Code is write-once; gorm never includes it in updates.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"<-:create;type:varchar(16);uniqueIndex;not null" json:"code"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"service_id"`
	Service   *Service  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	WorkerID  uuid.UUID `gorm:"type:uuid;not null;index:idx_booking_worker_date" json:"worker_id"`
	Worker    *Worker   `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`

	CustomerID *uuid.UUID     `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer   *User          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Guest      *GuestCustomer `gorm:"type:jsonb;serializer:json" json:"guest,omitempty"`

	ScheduledDate time.Time `gorm:"type:date;not null;index:idx_booking_worker_date" json:"scheduled_date"`
	StartTime     string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime       string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Location      Location  `gorm:"type:jsonb;serializer:json" json:"location"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`

	Pricing       Pricing         `gorm:"type:jsonb;serializer:json" json:"pricing"`
	Status        BookingStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Timeline      []TimelineEntry `gorm:"type:jsonb;serializer:json" json:"timeline"`
	Review        *Review         `gorm:"type:jsonb;serializer:json" json:"review,omitempty"`
	Cancellation  *Cancellation   `gorm:"type:jsonb;serializer:json" json:"cancellation,omitempty"`

	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SetCustomer stores exactly one side of the customer variant
func (b *Booking) SetCustomer(c Customer) {
	switch v := c.(type) {
	case RegisteredCustomer:
		id := v.UserID
		b.CustomerID = &id
		b.Guest = nil
	case GuestCustomer:
		g := v
		b.CustomerID = nil
		b.Guest = &g
	}
}

// CustomerRef returns the customer variant stored on the booking
func (b *Booking) CustomerRef() Customer {
	if b.CustomerID != nil {
		return RegisteredCustomer{UserID: *b.CustomerID}
	}
	if b.Guest != nil {
		return *b.Guest
	}
	return nil
}

// IsCustomer reports whether userID is the booking's registered customer
func (b *Booking) IsCustomer(userID uuid.UUID) bool {
	return b.CustomerID != nil && *b.CustomerID == userID
}

package model

import (
	"sort"
	"strings"
	"time"

	"handyhub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationIncomplete ApplicationStatus = "incomplete"
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationRejected   ApplicationStatus = "rejected"
)

// ServiceKind is the closed set of trades a worker can offer; catalog categories use the same set
type ServiceKind string

const (
	KindCleaning    ServiceKind = "cleaning"
	KindPlumbing    ServiceKind = "plumbing"
	KindElectrical  ServiceKind = "electrical"
	KindCarpentry   ServiceKind = "carpentry"
	KindPainting    ServiceKind = "painting"
	KindGardening   ServiceKind = "gardening"
	KindCooking     ServiceKind = "cooking"
	KindLaundry     ServiceKind = "laundry"
	KindBabysitting ServiceKind = "babysitting"
	KindElderlyCare ServiceKind = "elderly-care"
	KindPetCare     ServiceKind = "pet-care"
	KindMoving      ServiceKind = "moving"
)

var serviceKinds = map[ServiceKind]struct{}{
	KindCleaning: {}, KindPlumbing: {}, KindElectrical: {}, KindCarpentry: {},
	KindPainting: {}, KindGardening: {}, KindCooking: {}, KindLaundry: {},
	KindBabysitting: {}, KindElderlyCare: {}, KindPetCare: {}, KindMoving: {},
}

func (k ServiceKind) Valid() bool {
	_, ok := serviceKinds[k]
	return ok
}

var experienceBrackets = map[string]struct{}{"0-1": {}, "1-3": {}, "3-5": {}, "5-10": {}, "10+": {}}

func ValidExperience(s string) bool {
	_, ok := experienceBrackets[s]
	return ok
}

var (
	MinHourlyRate = decimal.NewFromInt(10)
	MaxHourlyRate = decimal.NewFromInt(200)
)

// StoredFile references an object held by the media host
type StoredFile struct {
	URL          string    `json:"url"`
	PublicID     string    `json:"public_id"`
	OriginalName string    `json:"original_name"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type BackgroundCheck struct {
	HasConvictions bool   `json:"has_convictions"`
	Details        string `json:"details,omitempty"`
	Status         string `json:"status"` // not-started, pending, cleared, flagged
}

// WorkerStats are updated with atomic column increments only
type WorkerStats struct {
	TotalBookings     int             `gorm:"not null;default:0" json:"total_bookings"`
	CompletedBookings int             `gorm:"not null;default:0" json:"completed_bookings"`
	CancelledBookings int             `gorm:"not null;default:0" json:"cancelled_bookings"`
	TotalEarnings     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_earnings"`
	ResponseRate      float64         `gorm:"not null;default:0" json:"response_rate"`
}

// Worker is the vetting and operating profile owned by a user
type Worker struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	FullName string `gorm:"type:varchar(120)" json:"full_name"`
	Email    string `gorm:"type:varchar(255)" json:"email"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`
	Address  string `gorm:"type:varchar(255)" json:"address"`
	City     string `gorm:"type:varchar(100);index" json:"city"`

	Services     []ServiceKind   `gorm:"type:jsonb;serializer:json" json:"services"`
	Experience   string          `gorm:"type:varchar(10)" json:"experience"`
	HourlyRate   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"hourly_rate"`
	Availability []string        `gorm:"type:jsonb;serializer:json" json:"availability"`
	Bio          string          `gorm:"type:text" json:"bio"`

	IDDocument      *StoredFile     `gorm:"type:jsonb;serializer:json" json:"id_document,omitempty"`
	Certifications  []StoredFile    `gorm:"type:jsonb;serializer:json" json:"certifications"`
	ProfilePhoto    *StoredFile     `gorm:"type:jsonb;serializer:json" json:"profile_photo,omitempty"`
	BackgroundCheck BackgroundCheck `gorm:"type:jsonb;serializer:json" json:"background_check"`

	ApplicationStatus ApplicationStatus `gorm:"type:varchar(20);not null;default:'incomplete';index" json:"application_status"`
	IsVerified        bool              `gorm:"not null;default:false" json:"is_verified"`
	SubmittedAt       *time.Time        `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID        `gorm:"type:uuid" json:"approved_by,omitempty"`
	RejectedAt        *time.Time        `json:"rejected_at,omitempty"`
	RejectionReason   string            `gorm:"type:text" json:"rejection_reason,omitempty"`

	Rating Rating      `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	Stats  WorkerStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MissingForSubmission lists the fields that keep the application from being reviewed
func (w *Worker) MissingForSubmission() []string {
	var missing []string
	required := map[string]string{
		"full_name": w.FullName,
		"email":     w.Email,
		"phone":     w.Phone,
		"address":   w.Address,
		"city":      w.City,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)

	if len(w.Services) == 0 {
		missing = append(missing, "services")
	}
	if w.HourlyRate.IsZero() {
		missing = append(missing, "hourly_rate")
	}
	if len(w.Availability) == 0 {
		missing = append(missing, "availability")
	}
	if w.IDDocument == nil || w.IDDocument.URL == "" {
		missing = append(missing, "id_document")
	}
	return missing
}

// RateInRange reports whether the hourly rate lies within the allowed bounds
func (w *Worker) RateInRange() bool {
	return !w.HourlyRate.LessThan(MinHourlyRate) && !w.HourlyRate.GreaterThan(MaxHourlyRate)
}

// ValidateForSubmission fails with field-level detail when a pending record is
// incomplete or prices its work outside the allowed bounds
func (w *Worker) ValidateForSubmission() error {
	missing := w.MissingForSubmission()
	badRate := !w.HourlyRate.IsZero() && !w.RateInRange()
	if len(missing) == 0 && !badRate {
		return nil
	}
	fields := make(map[string]string, len(missing)+1)
	for _, f := range missing {
		fields[f] = "required"
	}
	if badRate {
		fields["hourly_rate"] = "must be between 10 and 200"
		if len(missing) == 0 {
			return apperror.Validation("Hourly rate must be between 10 and 200", fields)
		}
	}
	return apperror.Validation("Application is incomplete: missing "+strings.Join(missing, ", "), fields)
}

// BeforeSave guards the pending state regardless of how the fields were set
func (w *Worker) BeforeSave(tx *gorm.DB) error {
	if w.ApplicationStatus == ApplicationPending {
		return w.ValidateForSubmission()
	}
	return nil
}

// AvailableFor reports whether every slot in slots is declared
func (w *Worker) AvailableFor(slots []string) bool {
	declared := make(map[string]struct{}, len(w.Availability))
	for _, s := range w.Availability {
		declared[s] = struct{}{}
	}
	for _, s := range slots {
		if _, ok := declared[s]; !ok {
			return false
		}
	}
	return true
}

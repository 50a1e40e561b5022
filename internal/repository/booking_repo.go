package repository

import (
	"context"
	"strings"
	"time"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

type BookingFilter struct {
	CustomerID *uuid.UUID
	WorkerID   *uuid.UUID
	ServiceID  *uuid.UUID
	Status     model.BookingStatus
	From, To   *time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetByCode(ctx context.Context, code string) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	// FindOverlapping returns active bookings of the worker on date whose window overlaps [start,end)
	FindOverlapping(ctx context.Context, workerID uuid.UUID, date time.Time, start, end string) ([]model.Booking, error)
	List(ctx context.Context, filter BookingFilter, p pagination.Params) ([]model.Booking, int64, error)
	CountActiveByService(ctx context.Context, serviceID uuid.UUID) (int64, error)
	DueForReminder(ctx context.Context, date time.Time) ([]model.Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// withRelations loads what a booking response shows. Deleted catalog entries
// still describe the bookings made against them.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Service", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Preload("Worker").
		Preload("Customer")
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return translate(GetDB(ctx, r.db).Omit(clause.Associations).Create(booking).Error, "create booking", "Booking")
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := GetDB(ctx, r.db).
		Scopes(withRelations).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "get booking", "Booking")
	}
	return &b, nil
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, translate(err, "lock booking", "Booking")
	}
	return &b, nil
}

func (r *bookingRepository) GetByCode(ctx context.Context, code string) (*model.Booking, error) {
	var b model.Booking
	err := GetDB(ctx, r.db).
		Scopes(withRelations).
		First(&b, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, translate(err, "get booking by code", "Booking")
	}
	return &b, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return translate(GetDB(ctx, r.db).Omit(clause.Associations).Save(booking).Error, "update booking", "Booking")
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, workerID uuid.UUID, date time.Time, start, end string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := GetDB(ctx, r.db).
		Where("worker_id = ? AND scheduled_date = ? AND status IN ?", workerID, date.Format(dateLayout), model.ActiveBookingStatuses).
		Where("start_time < ? AND end_time > ?", end, start).
		Find(&bookings).Error
	if err != nil {
		return nil, translate(err, "find overlapping bookings", "Booking")
	}
	return bookings, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter, p pagination.Params) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Booking{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.WorkerID != nil {
		query = query.Where("worker_id = ?", *filter.WorkerID)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		query = query.Where("scheduled_date <= ?", filter.To.Format(dateLayout))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count bookings", "Booking")
	}
	err := query.Scopes(withRelations).
		Order("scheduled_date desc, start_time desc").
		Offset(p.Offset).Limit(p.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, translate(err, "list bookings", "Booking")
	}
	return bookings, total, nil
}

func (r *bookingRepository) CountActiveByService(ctx context.Context, serviceID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("service_id = ? AND status IN ?", serviceID, model.ActiveBookingStatuses).
		Count(&n).Error
	return n, translate(err, "count active bookings", "Booking")
}

func (r *bookingRepository) DueForReminder(ctx context.Context, date time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := GetDB(ctx, r.db).
		Scopes(withRelations).
		Where("status = ? AND scheduled_date = ? AND reminder_sent_at IS NULL", model.BookingConfirmed, date.Format(dateLayout)).
		Find(&bookings).Error
	if err != nil {
		return nil, translate(err, "list reminders", "Booking")
	}
	return bookings, nil
}

func (r *bookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translate(GetDB(ctx, r.db).Model(&model.Booking{}).Where("id = ?", id).UpdateColumn("reminder_sent_at", at).Error, "mark reminder", "Booking")
}

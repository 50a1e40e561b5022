package repository

import (
	"context"
	"encoding/json"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerFilter struct {
	Status  model.ApplicationStatus
	Service model.ServiceKind
	City    string
}

// StatsDelta is applied to worker counters with a single UPDATE
type StatsDelta struct {
	Total     int
	Completed int
	Cancelled int
	Earnings  decimal.Decimal
}

type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Worker, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Worker, error)
	Update(ctx context.Context, worker *model.Worker) error
	List(ctx context.Context, filter WorkerFilter, p pagination.Params) ([]model.Worker, int64, error)
	IncrementStats(ctx context.Context, id uuid.UUID, delta StatsDelta) error
	ApplyRating(ctx context.Context, id uuid.UUID, rating int) error
}

type workerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Create(ctx context.Context, worker *model.Worker) error {
	return translate(GetDB(ctx, r.db).Omit(clause.Associations).Create(worker).Error, "create worker", "Worker profile")
}

func (r *workerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var w model.Worker
	if err := GetDB(ctx, r.db).Preload("User").First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get worker", "Worker")
	}
	return &w, nil
}

// GetByIDForUpdate locks the worker row; booking creation holds it to serialize per-worker slot checks
func (r *workerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	var w model.Worker
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, translate(err, "lock worker", "Worker")
	}
	return &w, nil
}

func (r *workerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Worker, error) {
	var w model.Worker
	if err := GetDB(ctx, r.db).First(&w, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "get worker by user", "Worker profile")
	}
	return &w, nil
}

// workerProfileColumns are the columns Update owns. Rating and stats columns
// move only through ApplyRating and IncrementStats.
var workerProfileColumns = []string{
	"full_name", "email", "phone", "address", "city",
	"services", "experience", "hourly_rate", "availability", "bio",
	"id_document", "certifications", "profile_photo", "background_check",
	"application_status", "is_verified", "submitted_at", "approved_at", "approved_by",
	"rejected_at", "rejection_reason", "updated_at",
}

func (r *workerRepository) Update(ctx context.Context, worker *model.Worker) error {
	err := GetDB(ctx, r.db).Model(worker).Select(workerProfileColumns).Updates(worker).Error
	return translate(err, "update worker", "Worker profile")
}

func (r *workerRepository) List(ctx context.Context, filter WorkerFilter, p pagination.Params) ([]model.Worker, int64, error) {
	var workers []model.Worker
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Worker{})
	if filter.Status != "" {
		query = query.Where("application_status = ?", filter.Status)
	}
	if filter.Service != "" {
		needle, _ := json.Marshal([]model.ServiceKind{filter.Service})
		query = query.Where("services @> ?::jsonb", string(needle))
	}
	if filter.City != "" {
		query = query.Where("city ILIKE ?", "%"+filter.City+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count workers", "Worker")
	}
	err := query.Preload("User").
		Order("rating_average desc, created_at desc").
		Offset(p.Offset).Limit(p.Limit).
		Find(&workers).Error
	if err != nil {
		return nil, 0, translate(err, "list workers", "Worker")
	}
	return workers, total, nil
}

func (r *workerRepository) IncrementStats(ctx context.Context, id uuid.UUID, delta StatsDelta) error {
	updates := map[string]interface{}{
		"stats_total_bookings":     gorm.Expr("stats_total_bookings + ?", delta.Total),
		"stats_completed_bookings": gorm.Expr("stats_completed_bookings + ?", delta.Completed),
		"stats_cancelled_bookings": gorm.Expr("stats_cancelled_bookings + ?", delta.Cancelled),
		"stats_total_earnings":     gorm.Expr("stats_total_earnings + ?", delta.Earnings),
	}
	err := GetDB(ctx, r.db).Model(&model.Worker{}).Where("id = ?", id).UpdateColumns(updates).Error
	return translate(err, "increment worker stats", "Worker")
}

// ApplyRating folds one review into the running average in a single statement
func (r *workerRepository) ApplyRating(ctx context.Context, id uuid.UUID, rating int) error {
	err := GetDB(ctx, r.db).Model(&model.Worker{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"rating_average": gorm.Expr("(rating_average * rating_count + ?) / (rating_count + 1)", rating),
		"rating_count":   gorm.Expr("rating_count + 1"),
	}).Error
	return translate(err, "apply worker rating", "Worker")
}

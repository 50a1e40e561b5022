package repository

import (
	"context"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceFilter struct {
	Category   model.ServiceKind
	ActiveOnly bool
	Search     string
}

// ServiceRepository stores catalog entries. Delete is soft so booking history keeps its service.
type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	GetByName(ctx context.Context, name string) (*model.Service, error)
	List(ctx context.Context, filter ServiceFilter, p pagination.Params) ([]model.Service, int64, error)
	Update(ctx context.Context, svc *model.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementPopularity(ctx context.Context, id uuid.UUID) error
	ApplyRating(ctx context.Context, id uuid.UUID, rating int) error
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, svc *model.Service) error {
	return translate(GetDB(ctx, r.db).Create(svc).Error, "create service", "Service")
}

func (r *serviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var svc model.Service
	if err := GetDB(ctx, r.db).First(&svc, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get service", "Service")
	}
	return &svc, nil
}

func (r *serviceRepository) GetByName(ctx context.Context, name string) (*model.Service, error) {
	var svc model.Service
	if err := GetDB(ctx, r.db).First(&svc, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return nil, translate(err, "get service by name", "Service")
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context, filter ServiceFilter, p pagination.Params) ([]model.Service, int64, error) {
	var services []model.Service
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Service{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR description ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count services", "Service")
	}
	if err := query.Order("popularity desc, name asc").Offset(p.Offset).Limit(p.Limit).Find(&services).Error; err != nil {
		return nil, 0, translate(err, "list services", "Service")
	}
	return services, total, nil
}

// serviceColumns are the admin-editable columns; popularity and rating are counters
var serviceColumns = []string{
	"name", "description", "category", "min_price", "max_price",
	"min_duration", "max_duration", "is_active", "updated_at",
}

func (r *serviceRepository) Update(ctx context.Context, svc *model.Service) error {
	err := GetDB(ctx, r.db).Model(svc).Select(serviceColumns).Updates(svc).Error
	return translate(err, "update service", "Service")
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Delete(&model.Service{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "delete service", "Service")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete service", "Service")
	}
	return nil
}

func (r *serviceRepository) IncrementPopularity(ctx context.Context, id uuid.UUID) error {
	err := GetDB(ctx, r.db).Model(&model.Service{}).Where("id = ?", id).
		UpdateColumn("popularity", gorm.Expr("popularity + ?", 1)).Error
	return translate(err, "increment popularity", "Service")
}

func (r *serviceRepository) ApplyRating(ctx context.Context, id uuid.UUID, rating int) error {
	err := GetDB(ctx, r.db).Model(&model.Service{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"rating_average": gorm.Expr("(rating_average * rating_count + ?) / (rating_count + 1)", rating),
		"rating_count":   gorm.Expr("rating_count + 1"),
	}).Error
	return translate(err, "apply service rating", "Service")
}

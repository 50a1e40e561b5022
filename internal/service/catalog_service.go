package service

import (
	"context"
	"errors"
	"strings"

	"handyhub/internal/model"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateServiceRequest struct {
	Name        string            `json:"name" binding:"required,min=2,max=120"`
	Description string            `json:"description" binding:"max=2000"`
	Category    model.ServiceKind `json:"category" binding:"required,workerservice"`
	MinPrice    decimal.Decimal   `json:"min_price"`
	MaxPrice    decimal.Decimal   `json:"max_price"`
	MinDuration int               `json:"min_duration" binding:"required,min=30"`
	MaxDuration int               `json:"max_duration" binding:"required"`
	IsActive    *bool             `json:"is_active"`
}

type UpdateServiceRequest struct {
	Name        *string            `json:"name" binding:"omitempty,min=2,max=120"`
	Description *string            `json:"description" binding:"omitempty,max=2000"`
	Category    *model.ServiceKind `json:"category" binding:"omitempty,workerservice"`
	MinPrice    *decimal.Decimal   `json:"min_price"`
	MaxPrice    *decimal.Decimal   `json:"max_price"`
	MinDuration *int               `json:"min_duration"`
	MaxDuration *int               `json:"max_duration"`
	IsActive    *bool              `json:"is_active"`
}

type ServiceListQuery struct {
	Category model.ServiceKind `form:"category" binding:"omitempty,workerservice"`
	Search   string            `form:"search"`
}

// --- Interface ---

type CatalogService interface {
	List(ctx context.Context, q ServiceListQuery, activeOnly bool, p pagination.Params) ([]model.Service, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Create(ctx context.Context, actor Actor, req CreateServiceRequest) (*model.Service, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateServiceRequest) (*model.Service, error)
	// Delete refuses while pending, confirmed or in-progress bookings reference the service
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type catalogService struct {
	services repository.ServiceRepository
	bookings repository.BookingRepository
	audit    AuditService
	tx       repository.TransactionManager
}

func NewCatalogService(services repository.ServiceRepository, bookings repository.BookingRepository, audit AuditService, tx repository.TransactionManager) CatalogService {
	return &catalogService{services: services, bookings: bookings, audit: audit, tx: tx}
}

func checkRanges(svc *model.Service) error {
	if errs := svc.RangeErrors(); len(errs) > 0 {
		return apperror.Validation("Invalid service definition", errs)
	}
	return nil
}

func (s *catalogService) List(ctx context.Context, q ServiceListQuery, activeOnly bool, p pagination.Params) ([]model.Service, int64, error) {
	return s.services.List(ctx, repository.ServiceFilter{Category: q.Category, ActiveOnly: activeOnly, Search: q.Search}, p)
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.services.GetByID(ctx, id)
}

func (s *catalogService) Create(ctx context.Context, actor Actor, req CreateServiceRequest) (*model.Service, error) {
	svc := &model.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		MinDuration: req.MinDuration,
		MaxDuration: req.MaxDuration,
		IsActive:    true,
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	if err := checkRanges(svc); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.services.GetByName(txCtx, svc.Name); err == nil {
			return apperror.AlreadyExists("A service with this name already exists")
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		if err := s.services.Create(txCtx, svc); err != nil {
			return err
		}
		// is_active has a database default, so false must be written explicitly
		if !svc.IsActive {
			if err := s.services.Update(txCtx, svc); err != nil {
				return err
			}
		}
		adminID := actor.UserID
		return s.audit.Record(txCtx, &adminID, model.ActionCreateService, svc.ID.String(), svc.Name, map[string]interface{}{
			"category": svc.Category,
		})
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateServiceRequest) (*model.Service, error) {
	var svc *model.Service
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		svc, err = s.services.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.Name != nil && strings.TrimSpace(*req.Name) != svc.Name {
			name := strings.TrimSpace(*req.Name)
			if other, err := s.services.GetByName(txCtx, name); err == nil && other.ID != svc.ID {
				return apperror.AlreadyExists("A service with this name already exists")
			} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
				return err
			}
			svc.Name = name
			changes["name"] = name
		}
		if req.Description != nil {
			svc.Description = strings.TrimSpace(*req.Description)
		}
		if req.Category != nil {
			svc.Category = *req.Category
			changes["category"] = svc.Category
		}
		if req.MinPrice != nil {
			svc.MinPrice = *req.MinPrice
		}
		if req.MaxPrice != nil {
			svc.MaxPrice = *req.MaxPrice
		}
		if req.MinDuration != nil {
			svc.MinDuration = *req.MinDuration
		}
		if req.MaxDuration != nil {
			svc.MaxDuration = *req.MaxDuration
		}
		if req.IsActive != nil {
			svc.IsActive = *req.IsActive
			changes["is_active"] = svc.IsActive
		}
		if err := checkRanges(svc); err != nil {
			return err
		}

		if err := s.services.Update(txCtx, svc); err != nil {
			return err
		}
		adminID := actor.UserID
		return s.audit.Record(txCtx, &adminID, model.ActionUpdateService, svc.ID.String(), svc.Name, changes)
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *catalogService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		svc, err := s.services.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		active, err := s.bookings.CountActiveByService(txCtx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperror.Conflict("Service has active bookings and cannot be deleted; deactivate it instead")
		}
		if err := s.services.Delete(txCtx, id); err != nil {
			return err
		}
		adminID := actor.UserID
		return s.audit.Record(txCtx, &adminID, model.ActionDeleteService, svc.ID.String(), svc.Name, nil)
	})
}

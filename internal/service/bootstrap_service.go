package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"handyhub/internal/config"
	"handyhub/internal/model"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"

	"github.com/shopspring/decimal"
)

type defaultService struct {
	name        string
	description string
	category    model.ServiceKind
	minPrice    int64
	maxPrice    int64
	minDuration int
	maxDuration int
}

var defaultCatalog = []defaultService{
	{"House Cleaning", "Regular or deep cleaning of rooms, kitchens and bathrooms.", model.KindCleaning, 20, 150, 60, 480},
	{"Plumbing Repair", "Leaks, clogged drains, taps and fixture installation.", model.KindPlumbing, 30, 250, 30, 240},
	{"Electrical Work", "Wiring, outlets, lighting and small electrical repairs.", model.KindElectrical, 35, 300, 30, 240},
	{"Carpentry", "Furniture assembly, doors, shelves and woodwork repairs.", model.KindCarpentry, 30, 300, 60, 480},
	{"Painting", "Interior and exterior painting, touch-ups and finishing.", model.KindPainting, 40, 500, 120, 600},
	{"Gardening", "Lawn mowing, hedge trimming, planting and yard care.", model.KindGardening, 20, 200, 60, 360},
	{"Home Cooking", "Meal preparation at home for families and events.", model.KindCooking, 25, 200, 60, 300},
	{"Laundry & Ironing", "Washing, drying, folding and ironing.", model.KindLaundry, 15, 100, 60, 240},
	{"Babysitting", "Trusted childcare at home.", model.KindBabysitting, 15, 150, 60, 600},
	{"Elderly Care", "Companionship and daily assistance for seniors.", model.KindElderlyCare, 20, 200, 60, 600},
	{"Pet Care", "Walking, feeding and sitting for pets.", model.KindPetCare, 15, 100, 30, 240},
	{"Moving Help", "Packing, loading and moving furniture.", model.KindMoving, 40, 500, 120, 600},
}

// BootstrapService seeds data the platform cannot run without. Every step is idempotent.
type BootstrapService interface {
	Run(ctx context.Context) error
	// SeedAdmin creates the configured admin account unless one with that email exists
	SeedAdmin(ctx context.Context) error
	// SeedServices inserts each default catalog entry whose name is absent
	SeedServices(ctx context.Context) (int, error)
}

type bootstrapService struct {
	users    repository.UserRepository
	services repository.ServiceRepository
	admin    config.AdminConfig
}

func NewBootstrapService(users repository.UserRepository, services repository.ServiceRepository, admin config.AdminConfig) BootstrapService {
	return &bootstrapService{users: users, services: services, admin: admin}
}

func (s *bootstrapService) Run(ctx context.Context) error {
	if err := s.SeedAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	n, err := s.SeedServices(ctx)
	if err != nil {
		return fmt.Errorf("seed services: %w", err)
	}
	if n > 0 {
		log.Printf("Seeded %d default services", n)
	}
	return nil
}

func (s *bootstrapService) SeedAdmin(ctx context.Context) error {
	if s.admin.Email == "" || s.admin.Password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	_, err := s.users.GetByEmail(ctx, s.admin.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hashed, err := hashPassword(s.admin.Password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Name:         s.admin.Name,
		Email:        s.admin.Email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	log.Printf("Created admin account %s", admin.Email)
	return nil
}

func (s *bootstrapService) SeedServices(ctx context.Context) (int, error) {
	created := 0
	for _, d := range defaultCatalog {
		_, err := s.services.GetByName(ctx, d.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return created, err
		}

		svc := &model.Service{
			Name:        d.name,
			Description: d.description,
			Category:    d.category,
			MinPrice:    decimal.NewFromInt(d.minPrice),
			MaxPrice:    decimal.NewFromInt(d.maxPrice),
			MinDuration: d.minDuration,
			MaxDuration: d.maxDuration,
			IsActive:    true,
		}
		if err := s.services.Create(ctx, svc); err != nil && !errors.Is(err, apperror.ErrAlreadyExists) {
			return created, err
		}
		created++
	}
	return created, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"handyhub/internal/model"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/shopspring/decimal"
)

func cleaningRequest(name string) CreateServiceRequest {
	return CreateServiceRequest{
		Name:        name,
		Category:    model.KindCleaning,
		MinPrice:    decimal.NewFromInt(20),
		MaxPrice:    decimal.NewFromInt(100),
		MinDuration: 60,
		MaxDuration: 240,
	}
}

func TestCatalogCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := actorFor(env.addUser(t, "admin@handyhub.test", model.RoleAdmin))

	svc, err := env.catalog.Create(ctx, admin, cleaningRequest(" Window Cleaning "))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if svc.Name != "Window Cleaning" || !svc.IsActive {
		t.Errorf("unexpected service %+v", svc)
	}

	_, err = env.catalog.Create(ctx, admin, cleaningRequest("Window Cleaning"))
	assertKind(t, err, apperror.ErrAlreadyExists)

	bad := cleaningRequest("Backwards")
	bad.MinPrice, bad.MaxPrice = decimal.NewFromInt(100), decimal.NewFromInt(20)
	bad.MaxDuration = 30
	_, err = env.catalog.Create(ctx, admin, bad)
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Fields["max_price"] == "" || appErr.Fields["max_duration"] == "" {
		t.Fatalf("expected range errors, got %v", err)
	}

	inactive := false
	updated, err := env.catalog.Update(ctx, admin, svc.ID, UpdateServiceRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.IsActive {
		t.Error("expected service to be deactivated")
	}

	p := pagination.New(1, 20)
	public, total, err := env.catalog.List(ctx, ServiceListQuery{}, true, p)
	if err != nil || total != 0 || len(public) != 0 {
		t.Errorf("inactive service listed publicly: %v", public)
	}
	all, total, err := env.catalog.List(ctx, ServiceListQuery{Category: model.KindCleaning}, false, p)
	if err != nil || total != 1 || all[0].ID != svc.ID {
		t.Errorf("admin listing missing service: %v (%v)", all, err)
	}

	env.db.mu.Lock()
	actions := map[string]int{}
	for _, a := range env.db.audits {
		actions[a.Action]++
	}
	env.db.mu.Unlock()
	if actions[model.ActionCreateService] != 1 || actions[model.ActionUpdateService] != 1 {
		t.Errorf("unexpected audit trail %v", actions)
	}
}

func TestCatalogDeleteGuardsActiveBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := actorFor(env.addUser(t, "admin@handyhub.test", model.RoleAdmin))
	svc := env.addService(t, "House Cleaning", model.KindCleaning)
	_, w := env.addApprovedWorker(t, "worker@handyhub.test", model.KindCleaning)
	customer := actorFor(env.addUser(t, "customer@handyhub.test", model.RoleUser))

	b, err := env.bookings.Create(ctx, &customer, bookingReq(svc, w, "09:00", "10:00"))
	if err != nil {
		t.Fatal(err)
	}

	err = env.catalog.Delete(ctx, admin, svc.ID)
	assertKind(t, err, apperror.ErrConflict)

	if _, err := env.bookings.UpdateStatus(ctx, customer, b.ID, UpdateBookingStatusRequest{Status: model.BookingCancelled}); err != nil {
		t.Fatal(err)
	}
	if err := env.catalog.Delete(ctx, admin, svc.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = env.catalog.Get(ctx, svc.ID)
	assertKind(t, err, apperror.ErrNotFound)
	err = env.catalog.Delete(ctx, admin, svc.ID)
	assertKind(t, err, apperror.ErrNotFound)

	// the cancelled booking still describes what was booked
	history, err := env.bookings.Get(ctx, customer, b.ID)
	if err != nil {
		t.Fatalf("booking lost with its service: %v", err)
	}
	if history.Service == nil || history.Service.Name != "House Cleaning" {
		t.Errorf("expected the deleted service on the booking, got %+v", history.Service)
	}

	if _, err := env.catalog.Create(ctx, admin, cleaningRequest("House Cleaning")); err != nil {
		t.Errorf("name of a deleted service should be reusable: %v", err)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.boot.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := env.boot.Run(ctx); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	n, err := env.boot.SeedServices(ctx)
	if err != nil || n != 0 {
		t.Errorf("expected nothing to seed, got %d (%v)", n, err)
	}

	env.db.mu.Lock()
	users, services := len(env.db.users), len(env.db.services)
	env.db.mu.Unlock()
	if users != 1 || services != len(defaultCatalog) {
		t.Fatalf("expected 1 admin and %d services, got %d and %d", len(defaultCatalog), users, services)
	}

	admin, err := (&fakeUserRepo{db: env.db}).GetByEmail(ctx, "admin@handyhub.test")
	if err != nil || admin.Role != model.RoleAdmin || !admin.IsVerified {
		t.Fatalf("unexpected admin %+v (%v)", admin, err)
	}
	if _, err := env.auth.Login(ctx, LoginRequest{Email: "admin@handyhub.test", Password: "admin-password"}); err != nil {
		t.Errorf("admin cannot log in: %v", err)
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range defaultCatalog {
		svc := model.Service{
			Category:    d.category,
			MinPrice:    decimal.NewFromInt(d.minPrice),
			MaxPrice:    decimal.NewFromInt(d.maxPrice),
			MinDuration: d.minDuration,
			MaxDuration: d.maxDuration,
		}
		if errs := svc.RangeErrors(); len(errs) > 0 {
			t.Errorf("%s: %v", d.name, errs)
		}
		if seen[d.name] {
			t.Errorf("duplicate default service %s", d.name)
		}
		seen[d.name] = true
	}
}

package repository

import (
	"context"
	"strings"
	"testing"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// recorder keeps the SQL gorm builds without a database behind it
type recorder struct {
	statements []string
	preloads   map[string][]interface{}
}

func dryRunDB(t *testing.T) (*gorm.DB, *recorder) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := &recorder{preloads: map[string][]interface{}{}}
	capture := func(tx *gorm.DB) {
		rec.statements = append(rec.statements, tx.Statement.SQL.String())
	}
	if err := db.Callback().Update().After("gorm:update").Register("test:capture_update", capture); err != nil {
		t.Fatal(err)
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("test:capture_delete", capture); err != nil {
		t.Fatal(err)
	}
	err = db.Callback().Query().Before("gorm:query").Register("test:capture_preloads", func(tx *gorm.DB) {
		for name, conds := range tx.Statement.Preloads {
			rec.preloads[name] = conds
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return db, rec
}

func (r *recorder) last(t *testing.T) string {
	t.Helper()
	if len(r.statements) == 0 {
		t.Fatal("no statement was built")
	}
	return r.statements[len(r.statements)-1]
}

// assertColumns checks the SET clause of an UPDATE
func assertColumns(t *testing.T, sql string, want, forbidden []string) {
	t.Helper()
	set := sql
	if i := strings.Index(set, " WHERE "); i >= 0 {
		set = set[:i]
	}
	for _, col := range want {
		if !strings.Contains(set, `"`+col+`"`) {
			t.Errorf("expected %s in %s", col, sql)
		}
	}
	for _, col := range forbidden {
		if strings.Contains(set, col) {
			t.Errorf("counter column %s must not be written by a profile update: %s", col, sql)
		}
	}
}

func TestWorkerUpdateLeavesCounters(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewWorkerRepository(db)

	worker := &model.Worker{
		ID:                uuid.New(),
		FullName:          "Ana Lima",
		HourlyRate:        decimal.NewFromInt(45),
		ApplicationStatus: model.ApplicationIncomplete,
	}
	if err := repo.Update(context.Background(), worker); err != nil {
		t.Fatalf("update: %v", err)
	}

	sql := rec.last(t)
	if !strings.HasPrefix(sql, `UPDATE "workers" SET`) {
		t.Fatalf("unexpected statement %s", sql)
	}
	assertColumns(t, sql,
		[]string{"full_name", "hourly_rate", "application_status", "updated_at"},
		[]string{"stats_", "rating_", "user_id", "created_at"})
}

func TestServiceUpdateLeavesCounters(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewServiceRepository(db)

	svc := &model.Service{
		ID:          uuid.New(),
		Name:        "Deep clean",
		Category:    model.ServiceKind("cleaning"),
		MinPrice:    decimal.NewFromInt(40),
		MaxPrice:    decimal.NewFromInt(90),
		MinDuration: 60,
		MaxDuration: 180,
	}
	if err := repo.Update(context.Background(), svc); err != nil {
		t.Fatalf("update: %v", err)
	}

	// is_active is selected so a zero value still deactivates the entry
	assertColumns(t, rec.last(t),
		[]string{"name", "min_price", "is_active", "updated_at"},
		[]string{"popularity", "rating_", "deleted_at"})
}

func TestUserUpdateLeavesRating(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewUserRepository(db)

	user := &model.User{ID: uuid.New(), Name: "Rui", Email: "rui@example.com", Role: model.RoleUser}
	if err := repo.Update(context.Background(), user); err != nil {
		t.Fatalf("update: %v", err)
	}

	assertColumns(t, rec.last(t),
		[]string{"name", "email", "is_active", "location_address"},
		[]string{"rating_", "last_login_at"})
}

func TestServiceDeleteIsSoft(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewServiceRepository(db)

	// a dry run affects no rows, so only the statement matters here
	_ = repo.Delete(context.Background(), uuid.New())

	sql := rec.last(t)
	if !strings.HasPrefix(sql, `UPDATE "services" SET "deleted_at"`) {
		t.Errorf("expected a soft delete, got %s", sql)
	}
	if strings.Contains(sql, "DELETE") {
		t.Errorf("service rows must never be removed: %s", sql)
	}
}

func TestBookingQueriesLoadRelations(t *testing.T) {
	db, rec := dryRunDB(t)
	repo := NewBookingRepository(db)

	if _, _, err := repo.List(context.Background(), BookingFilter{}, pagination.Params{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("list: %v", err)
	}

	for _, name := range []string{"Service", "Worker", "Customer"} {
		if _, ok := rec.preloads[name]; !ok {
			t.Errorf("list must preload %s, got %v", name, rec.preloads)
		}
	}

	conds := rec.preloads["Service"]
	if len(conds) != 1 {
		t.Fatalf("expected a scope on the service preload, got %v", conds)
	}
	scope, ok := conds[0].(func(*gorm.DB) *gorm.DB)
	if !ok {
		t.Fatalf("unexpected preload condition %T", conds[0])
	}
	if tx := scope(db.Session(&gorm.Session{})); !tx.Statement.Unscoped {
		t.Error("deleted services must still load for their bookings")
	}
}

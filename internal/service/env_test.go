package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"handyhub/internal/config"
	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// monday 2030-01-07 09:00 UTC
var testNow = time.Date(2030, time.January, 7, 9, 0, 0, 0, time.UTC)

const testPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"

type testEnv struct {
	db       *memDB
	mail     *recordingDispatcher
	store    *memStore
	clock    *time.Time
	otp      *otpService
	auth     *authService
	users    *userService
	workers  *workerService
	catalog  *catalogService
	bookings *bookingService
	boot     *bootstrapService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newMemDB()
	tx := &fakeTx{db: db}
	userRepo := &fakeUserRepo{db: db}
	tokenRepo := &fakeTokenRepo{db: db}
	otpRepo := &fakeOTPRepo{db: db}
	workerRepo := &fakeWorkerRepo{db: db}
	serviceRepo := &fakeServiceRepo{db: db}
	bookingRepo := &fakeBookingRepo{db: db}
	auditSvc := NewAuditService(&fakeAuditRepo{db: db})

	env := &testEnv{db: db, mail: &recordingDispatcher{}, store: newMemStore()}
	now := testNow
	env.clock = &now
	clock := func() time.Time { return *env.clock }

	otpCfg := config.OTPConfig{TTL: 10 * time.Minute, MaxAttempts: 3, ResendCooldown: time.Minute}
	jwtCfg := config.JWTConfig{Secret: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}

	env.otp = NewOTPService(otpRepo, tx, otpCfg).(*otpService)
	env.otp.now = clock
	env.auth = NewAuthService(userRepo, tokenRepo, env.otp, tx, env.mail, jwtCfg, otpCfg.TTL).(*authService)
	env.auth.now = clock
	env.users = NewUserService(userRepo, tokenRepo, auditSvc, tx, env.mail).(*userService)
	env.users.now = clock
	env.workers = NewWorkerService(workerRepo, userRepo, auditSvc, tx, env.store, env.mail, 5<<20).(*workerService)
	env.workers.now = clock
	env.catalog = NewCatalogService(serviceRepo, bookingRepo, auditSvc, tx).(*catalogService)
	env.bookings = NewBookingService(bookingRepo, workerRepo, serviceRepo, userRepo, tx, env.mail).(*bookingService)
	env.bookings.now = clock
	env.boot = NewBootstrapService(userRepo, serviceRepo, config.AdminConfig{
		Name: "Admin", Email: "admin@handyhub.test", Password: "admin-password",
	}).(*bootstrapService)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

// addUser stores a verified, active account directly
func (e *testEnv) addUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	hashed, err := hashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	u := &model.User{Name: "User " + email, Email: email, PasswordHash: hashed, Role: role, IsVerified: true, IsActive: true}
	if err := (&fakeUserRepo{db: e.db}).Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (e *testEnv) addService(t *testing.T, name string, kind model.ServiceKind) *model.Service {
	t.Helper()
	s := &model.Service{
		Name: name, Category: kind,
		MinPrice: decimal.NewFromInt(20), MaxPrice: decimal.NewFromInt(200),
		MinDuration: 60, MaxDuration: 480, IsActive: true,
	}
	if err := (&fakeServiceRepo{db: e.db}).Create(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

// addApprovedWorker creates an approved worker offering kind on every tuesday period
func (e *testEnv) addApprovedWorker(t *testing.T, email string, kind model.ServiceKind) (*model.User, *model.Worker) {
	t.Helper()
	u := e.addUser(t, email, model.RoleWorker)
	w := &model.Worker{
		UserID: u.ID, FullName: "Worker " + email, Email: email, Phone: "0123456789",
		Address: "1 Main St", City: "Hanoi",
		Services:          []model.ServiceKind{kind},
		Availability:      []string{"tuesday-morning", "tuesday-afternoon", "tuesday-evening"},
		HourlyRate:        decimal.NewFromInt(60),
		IDDocument:        &model.StoredFile{URL: "https://media.test/id.pdf", PublicID: "id"},
		ApplicationStatus: model.ApplicationApproved,
		IsVerified:        true,
	}
	if err := (&fakeWorkerRepo{db: e.db}).Create(context.Background(), w); err != nil {
		t.Fatal(err)
	}
	return u, w
}

func bookingReq(svc *model.Service, w *model.Worker, start, end string) CreateBookingRequest {
	return CreateBookingRequest{
		ServiceID:     svc.ID.String(),
		WorkerID:      w.ID.String(),
		ScheduledDate: "2030-01-08",
		StartTime:     start,
		EndTime:       end,
		Location:      model.Location{Address: "12 Customer Rd"},
	}
}

func actorFor(u *model.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) worker(t *testing.T, id uuid.UUID) model.Worker {
	t.Helper()
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	w, ok := e.db.workers[id]
	if !ok {
		t.Fatalf("worker %s not stored", id)
	}
	return w
}

// lastCode returns the clear OTP most recently mailed to email
func (e *testEnv) lastCode(t *testing.T, kind notify.Kind, email string) string {
	t.Helper()
	msg, ok := e.mail.last(kind, email)
	if !ok {
		t.Fatalf("no %s message sent to %s", kind, email)
	}
	return msg.Data["code"]
}

func assertKind(t *testing.T, err error, want *apperror.Error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %s error, got %v", want.Kind, err)
	}
}

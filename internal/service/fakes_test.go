package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"handyhub/internal/media"
	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memDB backs every fake repository. Its mutex guards the maps; txLock
// stands in for database row locks by serializing whole transactions.
type memDB struct {
	mu     sync.Mutex
	txLock sync.Mutex

	users    map[uuid.UUID]model.User
	tokens   map[string]model.RefreshToken
	otps     []model.OTP
	workers  map[uuid.UUID]model.Worker
	services map[uuid.UUID]model.Service
	bookings map[uuid.UUID]model.Booking
	audits   []model.AuditLog
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uuid.UUID]model.User{},
		tokens:   map[string]model.RefreshToken{},
		workers:  map[uuid.UUID]model.Worker{},
		services: map[uuid.UUID]model.Service{},
		bookings: map[uuid.UUID]model.Booking{},
	}
}

func page[T any](items []T, p pagination.Params) []T {
	if p.Limit <= 0 {
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func runningAverage(r model.Rating, rating int) model.Rating {
	total := r.Average*float64(r.Count) + float64(rating)
	r.Count++
	r.Average = total / float64(r.Count)
	return r
}

// --- transactions ---

type txKey struct{}

type fakeTx struct{ db *memDB }

func (t *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.db.txLock.Lock()
	defer t.db.txLock.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// --- users ---

type fakeUserRepo struct{ db *memDB }

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return apperror.AlreadyExists("User already exists")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	r.db.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (r *fakeUserRepo) List(_ context.Context, f repository.UserFilter, p pagination.Params) ([]model.User, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.User
	for _, u := range r.db.users {
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Name+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return page(out, p), int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.users[u.ID]
	if !ok {
		return apperror.NotFound("User not found")
	}
	next := *u
	next.Rating = stored.Rating
	next.LastLoginAt = stored.LastLoginAt
	next.CreatedAt = stored.CreatedAt
	r.db.users[u.ID] = next
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role model.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperror.NotFound("User not found")
	}
	u.Role = role
	r.db.users[id] = u
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperror.NotFound("User not found")
	}
	u.LastLoginAt = &at
	r.db.users[id] = u
	return nil
}

func (r *fakeUserRepo) ApplyRating(_ context.Context, id uuid.UUID, rating int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperror.NotFound("User not found")
	}
	u.Rating = runningAverage(u.Rating, rating)
	r.db.users[id] = u
	return nil
}

// --- refresh tokens ---

type fakeTokenRepo struct{ db *memDB }

func (r *fakeTokenRepo) Create(_ context.Context, t *model.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.db.tokens[t.Token] = *t
	return nil
}

func (r *fakeTokenRepo) GetActive(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tokens[token]
	if !ok || t.Revoked || !t.ExpiresAt.After(now) {
		return nil, apperror.NotFound("Refresh token not found")
	}
	return &t, nil
}

func (r *fakeTokenRepo) Revoke(_ context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t, ok := r.db.tokens[token]; ok {
		t.Revoked = true
		r.db.tokens[token] = t
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, t := range r.db.tokens {
		if t.UserID == userID {
			t.Revoked = true
			r.db.tokens[k] = t
		}
	}
	return nil
}

// --- otps ---

type fakeOTPRepo struct{ db *memDB }

func (r *fakeOTPRepo) Create(_ context.Context, o *model.OTP) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.db.otps = append(r.db.otps, *o)
	return nil
}

func (r *fakeOTPRepo) InvalidateActive(_ context.Context, email string, purpose model.OTPPurpose) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.otps {
		if r.db.otps[i].Email == email && r.db.otps[i].Purpose == purpose {
			r.db.otps[i].IsUsed = true
		}
	}
	return nil
}

func (r *fakeOTPRepo) latest(email string, purpose model.OTPPurpose) (*model.OTP, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.otps) - 1; i >= 0; i-- {
		if o := r.db.otps[i]; o.Email == email && o.Purpose == purpose {
			return &o, nil
		}
	}
	return nil, apperror.NotFound("Verification code not found")
}

func (r *fakeOTPRepo) LatestForUpdate(_ context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	return r.latest(email, purpose)
}

func (r *fakeOTPRepo) Latest(_ context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	return r.latest(email, purpose)
}

func (r *fakeOTPRepo) modify(id uuid.UUID, fn func(o *model.OTP)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.otps {
		if r.db.otps[i].ID == id {
			fn(&r.db.otps[i])
			return nil
		}
	}
	return apperror.NotFound("Verification code not found")
}

func (r *fakeOTPRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	return r.modify(id, func(o *model.OTP) { o.Attempts++ })
}

func (r *fakeOTPRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	return r.modify(id, func(o *model.OTP) { o.IsUsed = true })
}

func (r *fakeOTPRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.otps[:0]
	var n int64
	for _, o := range r.db.otps {
		if o.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	r.db.otps = kept
	return n, nil
}

// --- workers ---

type fakeWorkerRepo struct{ db *memDB }

func cloneWorker(w model.Worker) model.Worker {
	w.Services = append([]model.ServiceKind(nil), w.Services...)
	w.Availability = append([]string(nil), w.Availability...)
	w.Certifications = append([]model.StoredFile(nil), w.Certifications...)
	return w
}

func (r *fakeWorkerRepo) Create(_ context.Context, w *model.Worker) error {
	if err := w.BeforeSave(nil); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.workers {
		if existing.UserID == w.UserID {
			return apperror.AlreadyExists("Worker already exists")
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now().UTC()
	r.db.workers[w.ID] = cloneWorker(*w)
	return nil
}

func (r *fakeWorkerRepo) withUser(w model.Worker) *model.Worker {
	w = cloneWorker(w)
	if u, ok := r.db.users[w.UserID]; ok {
		w.User = &u
	}
	return &w
}

func (r *fakeWorkerRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Worker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workers[id]
	if !ok {
		return nil, apperror.NotFound("Worker not found")
	}
	return r.withUser(w), nil
}

func (r *fakeWorkerRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Worker, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeWorkerRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Worker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, w := range r.db.workers {
		if w.UserID == userID {
			return r.withUser(w), nil
		}
	}
	return nil, apperror.NotFound("Worker application not found")
}

func (r *fakeWorkerRepo) Update(_ context.Context, w *model.Worker) error {
	if err := w.BeforeSave(nil); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.workers[w.ID]
	if !ok {
		return apperror.NotFound("Worker not found")
	}
	updated := cloneWorker(*w)
	updated.User = nil
	// counters only move through IncrementStats and ApplyRating
	updated.Stats = existing.Stats
	updated.Rating = existing.Rating
	r.db.workers[w.ID] = updated
	return nil
}

func (r *fakeWorkerRepo) List(_ context.Context, f repository.WorkerFilter, p pagination.Params) ([]model.Worker, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Worker
	for _, w := range r.db.workers {
		if f.Status != "" && w.ApplicationStatus != f.Status {
			continue
		}
		if f.Service != "" && !offers(&w, f.Service) {
			continue
		}
		if f.City != "" && !strings.EqualFold(w.City, f.City) {
			continue
		}
		out = append(out, *r.withUser(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return page(out, p), int64(len(out)), nil
}

func (r *fakeWorkerRepo) IncrementStats(_ context.Context, id uuid.UUID, d repository.StatsDelta) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workers[id]
	if !ok {
		return apperror.NotFound("Worker not found")
	}
	w.Stats.TotalBookings += d.Total
	w.Stats.CompletedBookings += d.Completed
	w.Stats.CancelledBookings += d.Cancelled
	w.Stats.TotalEarnings = w.Stats.TotalEarnings.Add(d.Earnings)
	r.db.workers[id] = w
	return nil
}

func (r *fakeWorkerRepo) ApplyRating(_ context.Context, id uuid.UUID, rating int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.workers[id]
	if !ok {
		return apperror.NotFound("Worker not found")
	}
	w.Rating = runningAverage(w.Rating, rating)
	r.db.workers[id] = w
	return nil
}

// --- catalog ---

type fakeServiceRepo struct{ db *memDB }

// live returns the entry unless it was soft deleted. Caller holds the lock.
func (r *fakeServiceRepo) live(id uuid.UUID) (model.Service, bool) {
	s, ok := r.db.services[id]
	if !ok || s.DeletedAt.Valid {
		return model.Service{}, false
	}
	return s, true
}

func (r *fakeServiceRepo) Create(_ context.Context, s *model.Service) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.services {
		if existing.Name == s.Name && !existing.DeletedAt.Valid {
			return apperror.AlreadyExists("Service already exists")
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.db.services[s.ID] = *s
	return nil
}

func (r *fakeServiceRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Service, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.live(id)
	if !ok {
		return nil, apperror.NotFound("Service not found")
	}
	return &s, nil
}

func (r *fakeServiceRepo) GetByName(_ context.Context, name string) (*model.Service, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.services {
		if s.Name == name && !s.DeletedAt.Valid {
			return &s, nil
		}
	}
	return nil, apperror.NotFound("Service not found")
}

func (r *fakeServiceRepo) List(_ context.Context, f repository.ServiceFilter, p pagination.Params) ([]model.Service, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Service
	for _, s := range r.db.services {
		if s.DeletedAt.Valid {
			continue
		}
		if f.ActiveOnly && !s.IsActive {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, p), int64(len(out)), nil
}

// Update writes the editable columns only, like the gorm repository
func (r *fakeServiceRepo) Update(_ context.Context, s *model.Service) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.live(s.ID)
	if !ok {
		return apperror.NotFound("Service not found")
	}
	next := *s
	next.Popularity = stored.Popularity
	next.Rating = stored.Rating
	next.CreatedAt = stored.CreatedAt
	r.db.services[s.ID] = next
	return nil
}

func (r *fakeServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.live(id)
	if !ok {
		return apperror.NotFound("Service not found")
	}
	s.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.db.services[id] = s
	return nil
}

func (r *fakeServiceRepo) IncrementPopularity(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.services[id]
	if !ok {
		return apperror.NotFound("Service not found")
	}
	s.Popularity++
	r.db.services[id] = s
	return nil
}

func (r *fakeServiceRepo) ApplyRating(_ context.Context, id uuid.UUID, rating int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.services[id]
	if !ok {
		return apperror.NotFound("Service not found")
	}
	s.Rating = runningAverage(s.Rating, rating)
	r.db.services[id] = s
	return nil
}

// --- bookings ---

type fakeBookingRepo struct{ db *memDB }

func (r *fakeBookingRepo) hydrate(b model.Booking) *model.Booking {
	b.Timeline = append([]model.TimelineEntry(nil), b.Timeline...)
	// deleted services still hydrate, as the unscoped preload does
	if s, ok := r.db.services[b.ServiceID]; ok {
		b.Service = &s
	}
	if w, ok := r.db.workers[b.WorkerID]; ok {
		w = cloneWorker(w)
		b.Worker = &w
	}
	if b.CustomerID != nil {
		if u, ok := r.db.users[*b.CustomerID]; ok {
			b.Customer = &u
		}
	}
	return &b
}

func (r *fakeBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.bookings {
		if existing.Code == b.Code {
			return apperror.AlreadyExists("Booking already exists")
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	stored.Service, stored.Worker, stored.Customer = nil, nil, nil
	r.db.bookings[b.ID] = stored
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return nil, apperror.NotFound("Booking not found")
	}
	return r.hydrate(b), nil
}

func (r *fakeBookingRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBookingRepo) GetByCode(_ context.Context, code string) (*model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, b := range r.db.bookings {
		if b.Code == code {
			return r.hydrate(b), nil
		}
	}
	return nil, apperror.NotFound("Booking not found")
}

func (r *fakeBookingRepo) Update(_ context.Context, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.bookings[b.ID]
	if !ok {
		return apperror.NotFound("Booking not found")
	}
	stored := *b
	stored.Code = existing.Code
	stored.Timeline = append([]model.TimelineEntry(nil), b.Timeline...)
	stored.Service, stored.Worker, stored.Customer = nil, nil, nil
	stored.UpdatedAt = time.Now().UTC()
	r.db.bookings[b.ID] = stored
	return nil
}

func isActive(s model.BookingStatus) bool {
	for _, a := range model.ActiveBookingStatuses {
		if a == s {
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) FindOverlapping(_ context.Context, workerID uuid.UUID, date time.Time, start, end string) ([]model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Booking
	for _, b := range r.db.bookings {
		if b.WorkerID != workerID || !b.ScheduledDate.Equal(date) || !isActive(b.Status) {
			continue
		}
		if model.Overlaps(b.StartTime, b.EndTime, start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) List(_ context.Context, f repository.BookingFilter, p pagination.Params) ([]model.Booking, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Booking
	for _, b := range r.db.bookings {
		switch {
		case f.CustomerID != nil && (b.CustomerID == nil || *b.CustomerID != *f.CustomerID):
			continue
		case f.WorkerID != nil && b.WorkerID != *f.WorkerID:
			continue
		case f.ServiceID != nil && b.ServiceID != *f.ServiceID:
			continue
		case f.Status != "" && b.Status != f.Status:
			continue
		case f.From != nil && b.ScheduledDate.Before(*f.From):
			continue
		case f.To != nil && b.ScheduledDate.After(*f.To):
			continue
		}
		out = append(out, *r.hydrate(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.After(out[j].ScheduledDate) })
	return page(out, p), int64(len(out)), nil
}

func (r *fakeBookingRepo) CountActiveByService(_ context.Context, serviceID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, b := range r.db.bookings {
		if b.ServiceID == serviceID && isActive(b.Status) {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) DueForReminder(_ context.Context, date time.Time) ([]model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Booking
	for _, b := range r.db.bookings {
		if b.Status == model.BookingConfirmed && b.ScheduledDate.Equal(date) && b.ReminderSentAt == nil {
			out = append(out, *r.hydrate(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return apperror.NotFound("Booking not found")
	}
	b.ReminderSentAt = &at
	r.db.bookings[id] = b
	return nil
}

// --- audit ---

type fakeAuditRepo struct{ db *memDB }

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	r.db.audits = append(r.db.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, p pagination.Params) ([]model.AuditLog, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.AuditLog
	for i := len(r.db.audits) - 1; i >= 0; i-- {
		if action == "" || r.db.audits[i].Action == action {
			out = append(out, r.db.audits[i])
		}
	}
	return page(out, p), int64(len(out)), nil
}

// --- collaborators ---

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

// last returns the newest message of kind sent to to
func (d *recordingDispatcher) last(kind notify.Kind, to string) (notify.Message, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.messages) - 1; i >= 0; i-- {
		if m := d.messages[i]; m.Kind == kind && m.To == to {
			return m, true
		}
	}
	return notify.Message{}, false
}

func (d *recordingDispatcher) count(kind notify.Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, m := range d.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	failUpload bool
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Upload(_ context.Context, data []byte, filename, folder string) (media.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpload {
		return media.Object{}, errors.New("media host unavailable")
	}
	id := folder + "/" + uuid.NewString()
	s.objects[id] = data
	return media.Object{URL: "https://media.test/" + id + "/" + filename, PublicID: id}, nil
}

func (s *memStore) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("media host unavailable")
	}
	delete(s.objects, publicID)
	s.deleted = append(s.deleted, publicID)
	return nil
}

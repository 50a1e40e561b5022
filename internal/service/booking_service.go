package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/receipt"
	"handyhub/internal/repository"
	"handyhub/pkg/apperror"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"

	// no 0/O or 1/I so codes can be read over the phone
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength      = 8
	codeMaxAttempts = 3

	defaultCancelReason = "No reason provided"
)

// --- DTOs ---

type GuestInfo struct {
	Name    string `json:"name" binding:"omitempty,max=120"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=20"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

type CreateBookingRequest struct {
	ServiceID     string         `json:"service_id" binding:"required,uuid"`
	WorkerID      string         `json:"worker_id" binding:"required,uuid"`
	ScheduledDate string         `json:"scheduled_date" binding:"required,datetime=2006-01-02"`
	StartTime     string         `json:"start_time" binding:"required,hhmm"`
	EndTime       string         `json:"end_time" binding:"required,hhmm"`
	Location      model.Location `json:"location"`
	Notes         string         `json:"notes" binding:"max=1000"`
	Guest         *GuestInfo     `json:"guest"`
}

type UpdateBookingStatusRequest struct {
	Status model.BookingStatus `json:"status" binding:"required,oneof=confirmed in-progress completed cancelled"`
	Note   string              `json:"note" binding:"max=500"`
	Reason string              `json:"reason" binding:"max=500"`
}

type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

type BookingListQuery struct {
	Status    model.BookingStatus `form:"status" binding:"omitempty,oneof=pending confirmed in-progress completed cancelled"`
	ServiceID string              `form:"service_id" binding:"omitempty,uuid"`
	WorkerID  string              `form:"worker_id" binding:"omitempty,uuid"`
	From      string              `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string              `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

type ServiceSummary struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Category model.ServiceKind `json:"category"`
}

type WorkerSummary struct {
	ID       uuid.UUID    `json:"id"`
	FullName string       `json:"full_name"`
	Phone    string       `json:"phone"`
	PhotoURL string       `json:"photo_url,omitempty"`
	Rating   model.Rating `json:"rating"`
}

type CustomerSummary struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Address string     `json:"address,omitempty"`
}

type BookingResponse struct {
	ID            uuid.UUID             `json:"id"`
	Code          string                `json:"code"`
	Service       *ServiceSummary       `json:"service,omitempty"`
	Worker        *WorkerSummary        `json:"worker,omitempty"`
	Customer      *CustomerSummary      `json:"customer,omitempty"`
	IsGuest       bool                  `json:"is_guest"`
	ScheduledDate string                `json:"scheduled_date"`
	StartTime     string                `json:"start_time"`
	EndTime       string                `json:"end_time"`
	Location      model.Location        `json:"location"`
	Notes         string                `json:"notes,omitempty"`
	Pricing       model.Pricing         `json:"pricing"`
	Status        model.BookingStatus   `json:"status"`
	PaymentStatus model.PaymentStatus   `json:"payment_status"`
	Timeline      []model.TimelineEntry `json:"timeline"`
	Review        *model.Review         `json:"review,omitempty"`
	Cancellation  *model.Cancellation   `json:"cancellation,omitempty"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

// --- Interface ---

type BookingService interface {
	// Create books a worker; actor is nil for guest bookings
	Create(ctx context.Context, actor *Actor, req CreateBookingRequest) (*BookingResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req UpdateBookingStatusRequest) (*BookingResponse, error)
	AddReview(ctx context.Context, actor Actor, id uuid.UUID, req AddReviewRequest) (*BookingResponse, error)
	LookupByCode(ctx context.Context, code, email string) (*BookingResponse, error)

	Get(ctx context.Context, actor Actor, id uuid.UUID) (*BookingResponse, error)
	ListForCustomer(ctx context.Context, userID uuid.UUID, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error)
	ListForWorker(ctx context.Context, userID uuid.UUID, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error)
	ListAll(ctx context.Context, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error)
	Receipt(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error)

	// SendReminders emails customers of confirmed bookings scheduled for tomorrow
	SendReminders(ctx context.Context) (int, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	workers  repository.WorkerRepository
	services repository.ServiceRepository
	users    repository.UserRepository
	tx       repository.TransactionManager
	notify   notify.Dispatcher
	now      Clock
	codes    func() (string, error)
}

func NewBookingService(
	bookings repository.BookingRepository,
	workers repository.WorkerRepository,
	services repository.ServiceRepository,
	users repository.UserRepository,
	tx repository.TransactionManager,
	dispatcher notify.Dispatcher,
) BookingService {
	return &bookingService{
		bookings: bookings,
		workers:  workers,
		services: services,
		users:    users,
		tx:       tx,
		notify:   dispatcher,
		now:      systemClock,
		codes:    generateBookingCode,
	}
}

// Helper: parse model to standard json API response
func mapBookingResponse(b *model.Booking) *BookingResponse {
	res := &BookingResponse{
		ID:            b.ID,
		Code:          b.Code,
		ScheduledDate: b.ScheduledDate.Format(dateLayout),
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Location:      b.Location,
		Notes:         b.Notes,
		Pricing:       b.Pricing,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Timeline:      b.Timeline,
		Review:        b.Review,
		Cancellation:  b.Cancellation,
		CreatedAt:     formatTime(b.CreatedAt),
		UpdatedAt:     formatTime(b.UpdatedAt),
	}
	if res.Timeline == nil {
		res.Timeline = []model.TimelineEntry{}
	}
	if b.Service != nil {
		res.Service = &ServiceSummary{ID: b.Service.ID, Name: b.Service.Name, Category: b.Service.Category}
	}
	if b.Worker != nil {
		res.Worker = &WorkerSummary{ID: b.Worker.ID, FullName: b.Worker.FullName, Phone: b.Worker.Phone, Rating: b.Worker.Rating}
		if b.Worker.ProfilePhoto != nil {
			res.Worker.PhotoURL = b.Worker.ProfilePhoto.URL
		}
	}

	switch c := b.CustomerRef().(type) {
	case model.RegisteredCustomer:
		id := c.UserID
		res.Customer = &CustomerSummary{ID: &id}
		if b.Customer != nil {
			res.Customer.Name = b.Customer.Name
			res.Customer.Email = b.Customer.Email
			res.Customer.Phone = b.Customer.Phone
		}
	case model.GuestCustomer:
		res.IsGuest = true
		res.Customer = &CustomerSummary{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
	}
	return res
}

func mapBookingList(bookings []model.Booking) []BookingResponse {
	res := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		res = append(res, *mapBookingResponse(&bookings[i]))
	}
	return res
}

func generateBookingCode() (string, error) {
	var b strings.Builder
	b.WriteString("HH")
	size := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// resolveRole decides in which capacity actor acts on b
func (s *bookingService) resolveRole(ctx context.Context, actor Actor, b *model.Booking) (model.ActorRole, error) {
	if actor.IsAdmin() {
		return model.ActorAdmin, nil
	}
	w, err := s.workers.GetByUserID(ctx, actor.UserID)
	switch {
	case err == nil && w.ID == b.WorkerID:
		return model.ActorWorker, nil
	case err != nil && !errors.Is(err, apperror.ErrNotFound):
		return "", err
	}
	if b.IsCustomer(actor.UserID) {
		return model.ActorCustomer, nil
	}
	return "", apperror.Forbidden("You are not allowed to access this booking")
}

func validateGuest(g *GuestInfo) error {
	fields := map[string]string{}
	if g == nil {
		g = &GuestInfo{}
	}
	if strings.TrimSpace(g.Name) == "" {
		fields["guest.name"] = "required"
	}
	if strings.TrimSpace(g.Email) == "" {
		fields["guest.email"] = "required"
	}
	if strings.TrimSpace(g.Phone) == "" {
		fields["guest.phone"] = "required"
	}
	if strings.TrimSpace(g.Address) == "" {
		fields["guest.address"] = "required"
	}
	if len(fields) > 0 {
		return apperror.Validation("Guest bookings require name, email, phone and address", fields)
	}
	return nil
}

type bookingInput struct {
	serviceID uuid.UUID
	workerID  uuid.UUID
	date      time.Time
	minutes   int
}

func (s *bookingService) parseCreate(req CreateBookingRequest) (*bookingInput, error) {
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, apperror.Validation("Invalid service id", map[string]string{"service_id": "must be a uuid"})
	}
	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		return nil, apperror.Validation("Invalid worker id", map[string]string{"worker_id": "must be a uuid"})
	}
	date, err := time.Parse(dateLayout, req.ScheduledDate)
	if err != nil {
		return nil, apperror.Validation("Invalid scheduled date", map[string]string{"scheduled_date": "expected YYYY-MM-DD"})
	}
	minutes, err := model.DurationMinutes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, apperror.Validation(err.Error(), map[string]string{"end_time": "must be after start_time"})
	}

	start, _ := model.ParseClock(req.StartTime)
	if !date.Add(time.Duration(start) * time.Minute).After(s.now()) {
		return nil, apperror.Validation("Booking must be scheduled in the future", map[string]string{"scheduled_date": "must be in the future"})
	}
	return &bookingInput{serviceID: serviceID, workerID: workerID, date: date, minutes: minutes}, nil
}

func (s *bookingService) Create(ctx context.Context, actor *Actor, req CreateBookingRequest) (*BookingResponse, error) {
	in, err := s.parseCreate(req)
	if err != nil {
		return nil, err
	}

	var customer model.Customer
	role := model.ActorGuest
	if actor != nil {
		customer = model.RegisteredCustomer{UserID: actor.UserID}
		role = model.ActorCustomer
	} else {
		if err := validateGuest(req.Guest); err != nil {
			return nil, err
		}
		customer = model.GuestCustomer{
			Name:    strings.TrimSpace(req.Guest.Name),
			Email:   strings.ToLower(strings.TrimSpace(req.Guest.Email)),
			Phone:   strings.TrimSpace(req.Guest.Phone),
			Address: strings.TrimSpace(req.Guest.Address),
		}
	}

	location := req.Location
	location.Address = strings.TrimSpace(location.Address)
	if location.Address == "" && req.Guest != nil {
		location.Address = strings.TrimSpace(req.Guest.Address)
	}
	if location.Address == "" {
		return nil, apperror.Validation("Service address is required", map[string]string{"location.address": "required"})
	}

	// a code collision aborts the transaction, so each attempt starts a new one
	var bookingID uuid.UUID
	for attempt := 1; ; attempt++ {
		code, err := s.codes()
		if err != nil {
			return nil, fmt.Errorf("failed to generate booking code: %w", err)
		}
		bookingID, err = s.insertBooking(ctx, actor, req, in, customer, role, location, code)
		if err == nil {
			break
		}
		if !errors.Is(err, apperror.ErrAlreadyExists) {
			return nil, err
		}
		if attempt == codeMaxAttempts {
			return nil, apperror.Internal(errors.New("could not allocate a unique booking code"))
		}
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.notifyCreated(ctx, booking)
	return mapBookingResponse(booking), nil
}

// insertBooking re-checks availability under the worker row lock and stores the booking
func (s *bookingService) insertBooking(
	ctx context.Context,
	actor *Actor,
	req CreateBookingRequest,
	in *bookingInput,
	customer model.Customer,
	role model.ActorRole,
	location model.Location,
	code string,
) (uuid.UUID, error) {
	var bookingID uuid.UUID
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		svc, err := s.services.GetByID(txCtx, in.serviceID)
		if err != nil {
			return err
		}
		if !svc.IsActive {
			return apperror.NotFound("Service not found")
		}

		// the row lock serializes concurrent bookings of the same worker until commit
		worker, err := s.workers.GetByIDForUpdate(txCtx, in.workerID)
		if err != nil {
			return err
		}
		if worker.ApplicationStatus != model.ApplicationApproved {
			return apperror.NotFound("Worker not found")
		}
		if !offers(worker, svc.Category) {
			return apperror.Conflict("Worker does not offer this service")
		}

		slots, inHours, err := model.RequiredSlots(in.date, req.StartTime, req.EndTime)
		if err != nil {
			return apperror.Validation(err.Error(), nil)
		}
		if !inHours || !worker.AvailableFor(slots) {
			return apperror.Conflict("Worker is not available at the requested time")
		}

		clash, err := s.bookings.FindOverlapping(txCtx, worker.ID, in.date, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if len(clash) > 0 {
			return apperror.Conflict("Worker already has a booking at the requested time")
		}

		now := s.now()
		booking := &model.Booking{
			Code:          code,
			ServiceID:     svc.ID,
			WorkerID:      worker.ID,
			ScheduledDate: in.date,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Location:      location,
			Notes:         strings.TrimSpace(req.Notes),
			Pricing:       model.NewPricing(worker.HourlyRate, in.minutes),
			Status:        model.BookingPending,
			PaymentStatus: model.PaymentPending,
		}
		booking.SetCustomer(customer)
		booking.Timeline = []model.TimelineEntry{{
			Status:    model.BookingPending,
			ActorID:   actorID(actor),
			ActorRole: role,
			Note:      "Booking created",
			Timestamp: now,
		}}

		if err := s.bookings.Create(txCtx, booking); err != nil {
			return err
		}
		if err := s.workers.IncrementStats(txCtx, worker.ID, repository.StatsDelta{Total: 1}); err != nil {
			return err
		}
		if err := s.services.IncrementPopularity(txCtx, svc.ID); err != nil {
			return err
		}
		bookingID = booking.ID
		return nil
	})
	return bookingID, err
}

func offers(w *model.Worker, kind model.ServiceKind) bool {
	for _, k := range w.Services {
		if k == kind {
			return true
		}
	}
	return false
}

func actorID(a *Actor) *uuid.UUID {
	if a == nil {
		return nil
	}
	id := a.UserID
	return &id
}

func (s *bookingService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req UpdateBookingStatusRequest) (*BookingResponse, error) {
	var role model.ActorRole
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		role, err = s.resolveRole(txCtx, actor, b)
		if err != nil {
			return err
		}

		next, err := model.NextBookingStatus(b.Status, role, req.Status)
		if err != nil {
			return err
		}

		now := s.now()
		by := actor.UserID
		b.Status = next
		b.Timeline = append(b.Timeline, model.TimelineEntry{
			Status:    next,
			ActorID:   &by,
			ActorRole: role,
			Note:      strings.TrimSpace(req.Note),
			Timestamp: now,
		})

		var delta repository.StatsDelta
		switch next {
		case model.BookingCompleted:
			delta = repository.StatsDelta{Completed: 1, Earnings: b.Pricing.Total}
		case model.BookingCancelled:
			reason := strings.TrimSpace(req.Reason)
			if reason == "" {
				reason = defaultCancelReason
			}
			b.Cancellation = &model.Cancellation{Reason: reason, CancelledBy: by, CancelledAt: now}
			delta = repository.StatsDelta{Cancelled: 1}
		}

		if err := s.bookings.Update(txCtx, b); err != nil {
			return err
		}
		if delta.Completed > 0 || delta.Cancelled > 0 {
			return s.workers.IncrementStats(txCtx, b.WorkerID, delta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, booking, role, req.Note)
	return mapBookingResponse(booking), nil
}

func (s *bookingService) AddReview(ctx context.Context, actor Actor, id uuid.UUID, req AddReviewRequest) (*BookingResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.Validation("Rating must be between 1 and 5", map[string]string{"rating": "must be between 1 and 5"})
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookings.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !b.IsCustomer(actor.UserID) {
			return apperror.Forbidden("Only the customer who made this booking can review it")
		}
		if b.Status != model.BookingCompleted {
			return apperror.InvalidState(fmt.Sprintf("Only completed bookings can be reviewed; booking is %s", b.Status))
		}
		if b.Review != nil {
			return apperror.AlreadyExists("This booking has already been reviewed")
		}

		b.Review = &model.Review{Rating: req.Rating, Comment: strings.TrimSpace(req.Comment), CreatedAt: s.now()}
		if err := s.bookings.Update(txCtx, b); err != nil {
			return err
		}
		if err := s.workers.ApplyRating(txCtx, b.WorkerID, req.Rating); err != nil {
			return err
		}
		if err := s.services.ApplyRating(txCtx, b.ServiceID, req.Rating); err != nil {
			return err
		}

		worker, err := s.workers.GetByID(txCtx, b.WorkerID)
		if err != nil {
			return err
		}
		return s.users.ApplyRating(txCtx, worker.UserID, req.Rating)
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapBookingResponse(booking), nil
}

// LookupByCode lets guests find a booking. A wrong email is Forbidden so existence is not confirmed.
func (s *bookingService) LookupByCode(ctx context.Context, code, email string) (*BookingResponse, error) {
	b, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	owner := ""
	switch {
	case b.Customer != nil:
		owner = b.Customer.Email
	case b.Guest != nil:
		owner = b.Guest.Email
	}
	if email == "" || !strings.EqualFold(owner, email) {
		return nil, apperror.Forbidden("The email does not match this booking")
	}
	return mapBookingResponse(b), nil
}

func (s *bookingService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*BookingResponse, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveRole(ctx, actor, b); err != nil {
		return nil, err
	}
	return mapBookingResponse(b), nil
}

func (q BookingListQuery) filter() (repository.BookingFilter, error) {
	f := repository.BookingFilter{Status: q.Status}
	if q.ServiceID != "" {
		id, err := uuid.Parse(q.ServiceID)
		if err != nil {
			return f, apperror.Validation("Invalid service id", map[string]string{"service_id": "must be a uuid"})
		}
		f.ServiceID = &id
	}
	if q.WorkerID != "" {
		id, err := uuid.Parse(q.WorkerID)
		if err != nil {
			return f, apperror.Validation("Invalid worker id", map[string]string{"worker_id": "must be a uuid"})
		}
		f.WorkerID = &id
	}
	if q.From != "" {
		t, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return f, apperror.Validation("Invalid from date", map[string]string{"from": "expected YYYY-MM-DD"})
		}
		f.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return f, apperror.Validation("Invalid to date", map[string]string{"to": "expected YYYY-MM-DD"})
		}
		f.To = &t
	}
	return f, nil
}

func (s *bookingService) list(ctx context.Context, f repository.BookingFilter, p pagination.Params) ([]BookingResponse, int64, error) {
	bookings, total, err := s.bookings.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	return mapBookingList(bookings), total, nil
}

func (s *bookingService) ListForCustomer(ctx context.Context, userID uuid.UUID, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}
	f.CustomerID = &userID
	return s.list(ctx, f, p)
}

func (s *bookingService) ListForWorker(ctx context.Context, userID uuid.UUID, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}
	worker, err := s.workers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	f.WorkerID = &worker.ID
	return s.list(ctx, f, p)
}

func (s *bookingService) ListAll(ctx context.Context, q BookingListQuery, p pagination.Params) ([]BookingResponse, int64, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, f, p)
}

func (s *bookingService) Receipt(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if _, err := s.resolveRole(ctx, actor, b); err != nil {
		return nil, "", err
	}

	res := mapBookingResponse(b)
	r := receipt.Receipt{
		Code:     b.Code,
		Status:   string(b.Status),
		Total:    b.Pricing.Total.StringFixed(2),
		IssuedAt: s.now().Format("2006-01-02 15:04 MST"),
		Details: []receipt.Line{
			{Label: "Date", Value: fmt.Sprintf("%s %s-%s", res.ScheduledDate, b.StartTime, b.EndTime)},
			{Label: "Address", Value: b.Location.Address},
		},
		Charges: []receipt.Line{{
			Label: fmt.Sprintf("Base (%d min)", b.Pricing.DurationMinutes),
			Value: b.Pricing.BaseAmount.StringFixed(2),
		}},
	}
	if res.Service != nil {
		r.Title = res.Service.Name
	}
	if res.Worker != nil {
		r.Details = append(r.Details, receipt.Line{Label: "Worker", Value: res.Worker.FullName})
	}
	if res.Customer != nil {
		r.Details = append(r.Details, receipt.Line{Label: "Customer", Value: res.Customer.Name})
	}
	for _, c := range b.Pricing.AdditionalCharges {
		r.Charges = append(r.Charges, receipt.Line{Label: c.Description, Value: c.Amount.StringFixed(2)})
	}

	pdf, err := receipt.Render(r)
	if err != nil {
		return nil, "", err
	}
	return pdf, r.Filename(), nil
}

func (s *bookingService) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	due, err := s.bookings.DueForReminder(ctx, tomorrow)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		b := &due[i]
		email, name := customerContact(b)
		sendEmail(ctx, s.notify, notify.Message{
			Kind: notify.KindBookingReminder,
			To:   email,
			Name: name,
			Data: bookingData(b),
		})
		if err := s.bookings.MarkReminderSent(ctx, b.ID, now); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// --- notifications ---

func customerContact(b *model.Booking) (email, name string) {
	if b.Customer != nil {
		return b.Customer.Email, b.Customer.Name
	}
	if b.Guest != nil {
		return b.Guest.Email, b.Guest.Name
	}
	return "", ""
}

func bookingData(b *model.Booking) map[string]string {
	data := map[string]string{
		"code":    b.Code,
		"date":    b.ScheduledDate.Format(dateLayout),
		"start":   b.StartTime,
		"end":     b.EndTime,
		"total":   b.Pricing.Total.StringFixed(2),
		"address": b.Location.Address,
		"status":  string(b.Status),
	}
	if b.Service != nil {
		data["service"] = b.Service.Name
	}
	if b.Worker != nil {
		data["worker"] = b.Worker.FullName
	}
	_, data["customer"] = customerContact(b)
	return data
}

func (s *bookingService) notifyCreated(ctx context.Context, b *model.Booking) {
	data := bookingData(b)
	email, name := customerContact(b)
	sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindBookingConfirmation, To: email, Name: name, Data: data})
	if b.Worker != nil {
		sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindBookingNotification, To: b.Worker.Email, Name: b.Worker.FullName, Data: data})
	}
}

// notifyStatus tells the other party: a customer cancelling reaches the worker, everything else reaches the customer
func (s *bookingService) notifyStatus(ctx context.Context, b *model.Booking, by model.ActorRole, note string) {
	data := bookingData(b)
	if note != "" {
		data["note"] = note
	}
	if b.Status == model.BookingCancelled && b.Cancellation != nil {
		data["note"] = b.Cancellation.Reason
	}

	if b.Status == model.BookingCancelled && by == model.ActorCustomer {
		if b.Worker != nil {
			sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindBookingStatusUpdate, To: b.Worker.Email, Name: b.Worker.FullName, Data: data})
		}
		return
	}
	email, name := customerContact(b)
	sendEmail(ctx, s.notify, notify.Message{Kind: notify.KindBookingStatusUpdate, To: email, Name: name, Data: data})
}

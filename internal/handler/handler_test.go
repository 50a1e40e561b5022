package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"handyhub/internal/middleware"
	"handyhub/internal/model"
	"handyhub/internal/service"
	"handyhub/pkg/apperror"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func bearer(t *testing.T, id uuid.UUID, role model.Role) string {
	t.Helper()
	token, err := service.IssueAccessToken(testSecret, id, role, time.Now(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return res
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperror.Validation("bad input", map[string]string{"name": "is required"}), http.StatusBadRequest, "Bad input"},
		{apperror.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{apperror.Forbidden("nope"), http.StatusForbidden, "Nope"},
		{apperror.NotFound("Booking not found"), http.StatusNotFound, "Booking not found"},
		{apperror.Conflict("Worker already has a booking at the requested time"), http.StatusConflict, "Worker already has a booking at the requested time"},
		{apperror.AlreadyExists("exists"), http.StatusConflict, "Exists"},
		{apperror.InvalidTransition("completed", "cancelled"), http.StatusUnprocessableEntity, "Invalid status transition from completed to cancelled"},
		{apperror.InvalidState("not yet"), http.StatusUnprocessableEntity, "Not yet"},
		{apperror.RateLimited("slow down"), http.StatusTooManyRequests, "Slow down"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
		{apperror.Internal(errors.New("disk full")), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
		res := decode(t, w)
		if res.Success || res.Message != tc.message {
			t.Errorf("%v: unexpected body %+v", tc.err, res)
		}
	}
}

// stubBookings implements only what the tests call; anything else panics
type stubBookings struct {
	service.BookingService
	create      func(actor *service.Actor, req service.CreateBookingRequest) (*service.BookingResponse, error)
	calls       int
	lastActor   *service.Actor
	receiptName string
}

func (s *stubBookings) Create(_ context.Context, actor *service.Actor, req service.CreateBookingRequest) (*service.BookingResponse, error) {
	s.calls++
	s.lastActor = actor
	return s.create(actor, req)
}

func (s *stubBookings) UpdateStatus(context.Context, service.Actor, uuid.UUID, service.UpdateBookingStatusRequest) (*service.BookingResponse, error) {
	s.calls++
	return nil, apperror.InvalidTransition("completed", "cancelled")
}

func (s *stubBookings) Receipt(context.Context, service.Actor, uuid.UUID) ([]byte, string, error) {
	s.calls++
	return []byte("%PDF-1.4"), s.receiptName, nil
}

func bookingRouter(stub *stubBookings) *gin.Engine {
	r := gin.New()
	NewBookingHandler(stub, middleware.NewAuthenticator(testSecret, false)).RegisterRoutes(r.Group(""))
	return r
}

func serve(r http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingValidationErrors(t *testing.T) {
	stub := &stubBookings{}
	r := bookingRouter(stub)

	body := `{
		"service_id": "` + uuid.NewString() + `",
		"scheduled_date": "08/01/2030",
		"start_time": "9am",
		"end_time": "10:00",
		"guest": {"name": "Guest", "email": "not-an-email"}
	}`
	w := serve(r, http.MethodPost, "/bookings", body, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	res := decode(t, w)
	for _, field := range []string{"worker_id", "scheduled_date", "start_time", "guest.email"} {
		if _, ok := res.Errors[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, res.Errors)
		}
	}
	if stub.calls != 0 {
		t.Error("service must not be called for invalid input")
	}

	w = serve(r, http.MethodPost, "/bookings", `{not json`, "")
	if w.Code != http.StatusBadRequest || decode(t, w).Message != "Invalid request payload" {
		t.Errorf("unexpected response to malformed json: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingIdentifiesCaller(t *testing.T) {
	stub := &stubBookings{create: func(actor *service.Actor, req service.CreateBookingRequest) (*service.BookingResponse, error) {
		if actor == nil {
			return nil, apperror.Conflict("Worker is not available at the requested time")
		}
		return &service.BookingResponse{Code: "HHABCDEFGH", Status: model.BookingPending}, nil
	}}
	r := bookingRouter(stub)
	body := `{"service_id":"` + uuid.NewString() + `","worker_id":"` + uuid.NewString() + `","scheduled_date":"2030-01-08","start_time":"09:00","end_time":"10:00"}`

	customerID := uuid.New()
	w := serve(r, http.MethodPost, "/bookings", body, bearer(t, customerID, model.RoleUser))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if stub.lastActor == nil || stub.lastActor.UserID != customerID {
		t.Errorf("expected actor %s, got %+v", customerID, stub.lastActor)
	}

	w = serve(r, http.MethodPost, "/bookings", body, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for the anonymous call, got %d", w.Code)
	}
	if stub.lastActor != nil {
		t.Errorf("anonymous call carried actor %+v", stub.lastActor)
	}
}

func TestBookingRoutesRequireAuth(t *testing.T) {
	stub := &stubBookings{receiptName: "booking-HHABCDEFGH.pdf"}
	r := bookingRouter(stub)
	id := uuid.NewString()

	w := serve(r, http.MethodPut, "/bookings/"+id+"/status", `{"status":"cancelled"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/bookings/worker-bookings", "", bearer(t, uuid.New(), model.RoleUser))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-worker, got %d", w.Code)
	}

	auth := bearer(t, uuid.New(), model.RoleUser)
	w = serve(r, http.MethodPut, "/bookings/not-a-uuid/status", `{"status":"cancelled"}`, auth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad id, got %d", w.Code)
	}
	w = serve(r, http.MethodPut, "/bookings/"+id+"/status", `{"status":"pending"}`, auth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown target status, got %d", w.Code)
	}
	w = serve(r, http.MethodPut, "/bookings/"+id+"/status", `{"status":"cancelled"}`, auth)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/bookings/"+id+"/receipt", "", auth)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected receipt response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), stub.receiptName) {
		t.Errorf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

type stubStatistics struct {
	months int
}

func (s *stubStatistics) Dashboard(context.Context) (*model.DashboardStats, error) {
	return &model.DashboardStats{}, nil
}

func (s *stubStatistics) Revenue(_ context.Context, months int) ([]model.RevenuePoint, error) {
	s.months = months
	if months > 24 {
		return nil, apperror.Validation("months must be between 1 and 24", map[string]string{"months": "must be between 1 and 24"})
	}
	return []model.RevenuePoint{}, nil
}

func TestRevenueMonthsParameter(t *testing.T) {
	stub := &stubStatistics{}
	r := gin.New()
	NewStatisticsHandler(stub).RegisterRoutes(r.Group("/admin"))

	if w := serve(r, http.MethodGet, "/admin/revenue?months=abc", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-number, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin/revenue?months=30", "", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 from the service, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin/revenue", "", ""); w.Code != http.StatusOK || stub.months != 0 {
		t.Errorf("expected default months, got %d (%d)", stub.months, w.Code)
	}
}

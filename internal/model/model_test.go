package model

import (
	"errors"
	"testing"
	"time"

	"handyhub/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewPricingRounding(t *testing.T) {
	cases := []struct {
		rate    int64
		minutes int
		want    int64
	}{
		{60, 90, 90},
		{25, 61, 25},
		{30, 30, 15},
		{45, 100, 75},
		{10, 3, 1}, // 0.5 rounds half away from zero
	}
	for _, tc := range cases {
		p := NewPricing(decimal.NewFromInt(tc.rate), tc.minutes)
		if !p.Total.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("rate %d, %d min: expected %d, got %s", tc.rate, tc.minutes, tc.want, p.Total)
		}
		if p.DurationMinutes != tc.minutes || !p.BaseAmount.Equal(p.Total) {
			t.Errorf("unexpected pricing %+v", p)
		}
	}
}

func TestDurationMinutes(t *testing.T) {
	if got, err := DurationMinutes("09:00", "10:30"); err != nil || got != 90 {
		t.Fatalf("expected 90, got %d (%v)", got, err)
	}
	for _, pair := range [][2]string{{"10:00", "10:00"}, {"11:00", "10:00"}, {"9:00", "10:00"}, {"09:00", "25:00"}} {
		if _, err := DurationMinutes(pair[0], pair[1]); err == nil {
			t.Errorf("%v: expected an error", pair)
		}
	}
}

func TestRequiredSlots(t *testing.T) {
	monday := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)

	slots, ok, err := RequiredSlots(monday, "09:00", "11:00")
	if err != nil || !ok || len(slots) != 1 || slots[0] != "monday-morning" {
		t.Fatalf("unexpected %v %v %v", slots, ok, err)
	}

	slots, ok, _ = RequiredSlots(monday, "11:00", "13:00")
	if !ok || len(slots) != 2 || slots[1] != "monday-afternoon" {
		t.Fatalf("expected morning and afternoon, got %v", slots)
	}

	if _, ok, _ := RequiredSlots(monday, "05:00", "07:00"); ok {
		t.Fatal("a window starting before 06:00 is outside every period")
	}
	if _, ok, _ := RequiredSlots(monday, "21:00", "23:00"); ok {
		t.Fatal("a window ending after 22:00 is outside every period")
	}
}

func TestValidSlot(t *testing.T) {
	for _, s := range []string{"monday-morning", "sunday-evening", "friday-afternoon"} {
		if !ValidSlot(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []string{"monday", "funday-morning", "monday-night", ""} {
		if ValidSlot(s) {
			t.Errorf("%s should be invalid", s)
		}
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	if Overlaps("09:00", "10:00", "10:00", "11:00") {
		t.Fatal("adjacent windows must not overlap")
	}
	if !Overlaps("09:00", "10:30", "10:00", "11:00") {
		t.Fatal("expected overlap")
	}
	if !Overlaps("09:00", "12:00", "10:00", "11:00") {
		t.Fatal("containing window overlaps")
	}
}

func completeWorker() *Worker {
	return &Worker{
		FullName:     "Ada Worker",
		Email:        "ada@example.com",
		Phone:        "0123456789",
		Address:      "1 Main St",
		City:         "Springfield",
		Services:     []ServiceKind{KindCleaning},
		HourlyRate:   decimal.NewFromInt(40),
		Availability: []string{"monday-morning"},
		IDDocument:   &StoredFile{URL: "https://cdn.example/id.png", PublicID: "id"},
	}
}

func TestWorkerPendingGuard(t *testing.T) {
	w := completeWorker()
	w.ApplicationStatus = ApplicationPending
	if err := w.BeforeSave(nil); err != nil {
		t.Fatalf("complete worker should pass: %v", err)
	}

	w.Services = nil
	w.Availability = nil
	w.IDDocument = nil
	err := w.BeforeSave(nil)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperror.Error
	errors.As(err, &appErr)
	for _, field := range []string{"services", "availability", "id_document"} {
		if _, ok := appErr.Fields[field]; !ok {
			t.Errorf("expected %s in missing fields %v", field, appErr.Fields)
		}
	}

	// drafts are never blocked
	w.ApplicationStatus = ApplicationIncomplete
	if err := w.BeforeSave(nil); err != nil {
		t.Fatalf("incomplete draft should save: %v", err)
	}
}

func TestWorkerPendingGuardChecksRate(t *testing.T) {
	w := completeWorker()
	w.ApplicationStatus = ApplicationPending

	cases := []struct {
		rate    int64
		message string
	}{
		{0, "required"},
		{5, "must be between 10 and 200"},
		{201, "must be between 10 and 200"},
	}
	for _, tc := range cases {
		w.HourlyRate = decimal.NewFromInt(tc.rate)
		err := w.BeforeSave(nil)
		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Fields["hourly_rate"] != tc.message {
			t.Errorf("rate %d: expected %q, got %v", tc.rate, tc.message, err)
		}
	}

	for _, rate := range []int64{10, 200} {
		w.HourlyRate = decimal.NewFromInt(rate)
		if err := w.BeforeSave(nil); err != nil {
			t.Errorf("rate %d is within bounds: %v", rate, err)
		}
	}

	w.HourlyRate = decimal.Zero
	if missing := w.MissingForSubmission(); len(missing) != 1 || missing[0] != "hourly_rate" {
		t.Errorf("expected only the rate missing, got %v", missing)
	}
}

func TestWorkerAvailableFor(t *testing.T) {
	w := completeWorker()
	w.Availability = []string{"monday-morning", "monday-afternoon"}
	if !w.AvailableFor([]string{"monday-morning", "monday-afternoon"}) {
		t.Fatal("expected available")
	}
	if w.AvailableFor([]string{"monday-evening"}) {
		t.Fatal("expected unavailable")
	}
}

func TestBookingCustomerVariant(t *testing.T) {
	var b Booking
	id := uuid.New()

	b.SetCustomer(GuestCustomer{Name: "G", Email: "g@example.com", Phone: "1", Address: "A"})
	if b.CustomerID != nil || b.Guest == nil {
		t.Fatal("guest must populate only the guest side")
	}

	b.SetCustomer(RegisteredCustomer{UserID: id})
	if b.Guest != nil || b.CustomerID == nil || !b.IsCustomer(id) {
		t.Fatal("registered must populate only the customer id")
	}
	switch c := b.CustomerRef().(type) {
	case RegisteredCustomer:
		if c.UserID != id {
			t.Fatal("wrong user id")
		}
	default:
		t.Fatalf("unexpected variant %T", c)
	}
}

func TestServiceRangeErrors(t *testing.T) {
	s := Service{
		Category:    KindPlumbing,
		MinPrice:    decimal.NewFromInt(50),
		MaxPrice:    decimal.NewFromInt(20),
		MinDuration: 15,
		MaxDuration: 60,
	}
	errs := s.RangeErrors()
	if _, ok := errs["max_price"]; !ok {
		t.Error("expected max_price error")
	}
	if _, ok := errs["min_duration"]; !ok {
		t.Error("expected min_duration error")
	}
	if _, ok := errs["category"]; ok {
		t.Error("plumbing is a valid category")
	}
}

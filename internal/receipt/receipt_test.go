package receipt

import (
	"bytes"
	"testing"
)

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(Receipt{
		Code:    "HHABCD2345",
		Title:   "Deep cleaning",
		Status:  "confirmed",
		Details: []Line{{Label: "Date", Value: "2026-11-02 09:00-11:00"}, {Label: "Worker", Value: "Amélie Dupont"}},
		Charges: []Line{{Label: "Base (120 min)", Value: "90"}},
		Total:   "90",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", out[:8])
	}
}

func TestRenderRequiresCode(t *testing.T) {
	if _, err := Render(Receipt{}); err == nil {
		t.Fatal("expected an error without a booking code")
	}
	if got := (Receipt{Code: "HHX"}).Filename(); got != "booking-HHX.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
}

// Package receipt renders printable booking receipts.
package receipt

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// Line is one labelled row on the receipt
type Line struct {
	Label string
	Value string
}

// Receipt is everything printed for one booking
type Receipt struct {
	Code     string
	Title    string
	Status   string
	Details  []Line
	Charges  []Line
	Total    string
	IssuedAt string
}

// Filename is the download name used for the PDF
func (r Receipt) Filename() string {
	return "booking-" + r.Code + ".pdf"
}

// Render draws the receipt as a single A4 page with a QR code of the booking code
func Render(r Receipt) ([]byte, error) {
	if r.Code == "" {
		return nil, fmt.Errorf("receipt: booking code is required")
	}

	qrPNG, err := qrcode.Encode(r.Code, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("receipt: generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("HandyHub booking "+r.Code, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "HandyHub")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, r.Title)
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 15, 40, 40, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(45, 8, "Booking code")
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, r.Code)
	pdf.Ln(8)
	writeLines(pdf, []Line{{Label: "Status", Value: r.Status}})
	writeLines(pdf, r.Details)

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Charges")
	pdf.Ln(9)
	writeLines(pdf, r.Charges)

	pdf.SetDrawColor(160, 160, 160)
	pdf.Line(10, pdf.GetY()+1, 200, pdf.GetY()+1)
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(45, 8, "Total")
	pdf.Cell(0, 8, r.Total)
	pdf.Ln(14)

	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 6, "Issued "+r.IssuedAt+". Show the QR code to your worker on arrival.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeLines(pdf *gofpdf.Fpdf, lines []Line) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, l := range lines {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(45, 7, tr(l.Label))
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 7, tr(l.Value), "", "L", false)
	}
}

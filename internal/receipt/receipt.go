// Package receipt renders donation receipts as PDF documents.
//
// Output is deterministic for a given Input: document dates are pinned to the
// receipt date, catalog entries are sorted and page streams are left
// uncompressed. The last point keeps receipts greppable in tests and support
// tooling.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrRender is returned when a receipt cannot be produced.
var ErrRender = errors.New("failed to generate receipt")

// TaxNote is printed on every receipt.
const TaxNote = "Donations to the organisation are eligible for deduction under Section 80G of the Income Tax Act, 1961, subject to applicable limits."

// Input is the data printed on a receipt. Amount is in whole rupees.
type Input struct {
	DonorName     string
	Email         string
	Phone         string
	PAN           string
	Amount        int64
	TransactionID string
	Date          time.Time
}

// Renderer produces receipt documents. *Generator is the production
// implementation; tests substitute failing renderers.
type Renderer interface {
	Render(in Input) ([]byte, error)
}

// Generator renders receipts with fpdf.
type Generator struct {
	org     string
	loc     *time.Location
	printer *message.Printer
}

// NewGenerator builds a Generator for the organisation name, BCP 47 locale
// (used for digit grouping) and IANA time zone (used for the receipt date).
func NewGenerator(org, locale, timezone string) (*Generator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("receipt locale %q: %w", locale, err)
	}
	loc := time.UTC
	if timezone != "" {
		if loc, err = time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("receipt timezone %q: %w", timezone, err)
		}
	}
	return &Generator{org: org, loc: loc, printer: message.NewPrinter(tag)}, nil
}

// FormatNumber groups digits for the configured locale, e.g. "1,000".
func (g *Generator) FormatNumber(n int64) string {
	return g.printer.Sprintf("%d", n)
}

// FormatAmount renders whole rupees with locale digit grouping, e.g. "INR 1,000".
func (g *Generator) FormatAmount(amount int64) string {
	return "INR " + g.FormatNumber(amount)
}

// FormatDate renders t as day/month/year in the receipt time zone.
func (g *Generator) FormatDate(t time.Time) string {
	return t.In(g.loc).Format("2/1/2006")
}

// Render produces the PDF bytes for in.
//
// Layout (A4, Helvetica, top to bottom):
//   - organisation name and "Donation Receipt"
//   - receipt date and transaction id
//   - donor name, email, phone and PAN when present
//   - amount with locale grouping
//   - thank-you line, TaxNote and the computer-generated notice
//
// A zero in.Date means now. Non-Latin-1 text goes through fpdf's cp1252
// translator; unsupported runes are dropped by fpdf.
func (g *Generator) Render(in Input) ([]byte, error) {
	if strings.TrimSpace(in.TransactionID) == "" || strings.TrimSpace(in.DonorName) == "" || in.Amount <= 0 {
		return nil, fmt.Errorf("%w: missing donor name, transaction id or amount", ErrRender)
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = date.In(g.loc)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(date)
	pdf.SetModificationDate(date)
	pdf.SetCreator(g.org, true)
	pdf.SetTitle("Donation Receipt "+in.TransactionID, true)
	pdf.SetMargins(20, 15, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	center := func(size float64, style, text string, h float64) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(0, h, tr(text), "", 1, "C", false, 0, "")
	}
	line := func(size float64, style, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
	}

	center(20, "B", g.org, 10)
	center(16, "", "Donation Receipt", 10)
	pdf.Ln(10)

	line(12, "", "Receipt Date: "+g.FormatDate(date))
	line(12, "", "Transaction ID: "+in.TransactionID)
	pdf.Ln(6)

	line(12, "B", "Donor Information:")
	line(11, "", "Name: "+in.DonorName)
	line(11, "", "Email: "+in.Email)
	line(11, "", "Phone: "+in.Phone)
	if in.PAN != "" {
		line(11, "", "PAN: "+strings.ToUpper(in.PAN))
	}
	pdf.Ln(6)

	line(12, "B", "Donation Details:")
	line(14, "", "Amount: "+g.FormatAmount(in.Amount))
	pdf.Ln(12)

	center(10, "", "Thank you for your generous donation!", 6)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(TaxNote), "", "C", false)
	center(10, "", "This receipt is computer generated and does not require a signature.", 6)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Filename is the download name for a receipt.
func Filename(transactionID string) string {
	return "donation_receipt_" + transactionID + ".pdf"
}

// AttachmentName is the file name used when a receipt is emailed.
func AttachmentName(transactionID string) string {
	return "receipt_" + transactionID + ".pdf"
}

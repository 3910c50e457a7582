// Package document renders the admission confirmation handed to parents.
package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	pageHeight = 792.0 // Letter, in points
	marginLeft = 100.0
	lineHeight = 20.0

	titleFontSize = 16.0
	bodyFontSize  = 12.0
	fontFamily    = "Helvetica"

	TimestampLayout = "2006-01-02 15:04:05"
)

type (
	PaymentDetails struct {
		BankName      string
		AccountNumber string
		Amount        string
		ProofEmail    string
	}

	// Confirmation holds everything printed on the confirmation page.
	Confirmation struct {
		SchoolName   string
		StudentName  string
		ParentName   string
		FormLevel    string
		TrackingCode string
		Status       string
		Timestamp    time.Time
		Payment      PaymentDetails
	}

	// Line is a single text line; Y is measured from the bottom of the page.
	Line struct {
		Y    float64
		Size float64
		Text string
	}
)

// Lines lays out the page top to bottom.
func (c Confirmation) Lines() []Line {
	lines := []Line{
		{Y: 750, Size: titleFontSize, Text: c.SchoolName},
		{Y: 730, Size: bodyFontSize, Text: "Admission Application Confirmation"},
	}
	body := []string{
		"Student Name: " + c.StudentName,
		"Parent Name: " + c.ParentName,
		"Form Level: " + c.FormLevel,
		"Tracking Code: " + c.TrackingCode,
		"Status: " + c.Status,
		"Date: " + c.Timestamp.Format(TimestampLayout),
		"Payment Instructions:",
		"Please make a bank transfer to the following account:",
		"Bank: " + c.Payment.BankName,
		"Account Number: " + c.Payment.AccountNumber,
		"Amount: " + c.Payment.Amount,
		fmt.Sprintf("Reference: Include the Tracking Code (%s) in the payment reference.", c.TrackingCode),
		fmt.Sprintf("After payment, please email a payment confirmation to %s.", c.Payment.ProofEmail),
	}
	y := 700.0
	for _, text := range body {
		lines = append(lines, Line{Y: y, Size: bodyFontSize, Text: text})
		y -= lineHeight
	}
	return lines
}

// Render produces a single Letter page PDF.
// The output only depends on c; the document dates are taken from c.Timestamp.
func (c Confirmation) Render() ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(c.Timestamp)
	pdf.SetModificationDate(c.Timestamp)
	pdf.SetTitle("Admission Application Confirmation", true)
	pdf.SetAuthor(c.SchoolName, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252
	for _, ln := range c.Lines() {
		pdf.SetFont(fontFamily, "", ln.Size)
		pdf.Text(marginLeft, pageHeight-ln.Y, tr(ln.Text))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "rendering confirmation")
	}
	return buf.Bytes(), nil
}

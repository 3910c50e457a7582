package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmation() Confirmation {
	return Confirmation{
		SchoolName:   "Francis Maria Libermann School",
		StudentName:  "Jane Doe",
		ParentName:   "John Doe",
		FormLevel:    "1",
		TrackingCode: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Status:       "Pending Payment",
		Timestamp:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Payment: PaymentDetails{
			BankName:      "NMB",
			AccountNumber: "444444444444",
			Amount:        "TZS 150,000",
			ProofEmail:    "school@test.tz",
		},
	}
}

func TestConfirmation_Lines(t *testing.T) {
	lines := newConfirmation().Lines()

	require.Len(t, lines, 15)
	assert.Equal(t, Line{Y: 750, Size: 16, Text: "Francis Maria Libermann School"}, lines[0])
	assert.Equal(t, 730.0, lines[1].Y)
	assert.Equal(t, Line{Y: 700, Size: 12, Text: "Student Name: Jane Doe"}, lines[2])
	assert.Equal(t, "Date: 2024-03-01 09:30:00", lines[7].Text)
	assert.Equal(t, 460.0, lines[len(lines)-1].Y)

	var found bool
	for _, ln := range lines {
		if ln.Text == "Reference: Include the Tracking Code (7c9e6679-7425-40de-944b-e07fc1f90ae7) in the payment reference." {
			found = true
		}
	}
	assert.True(t, found, "payment reference line missing")
}

func TestConfirmation_Render(t *testing.T) {
	conf := newConfirmation()

	first, err := conf.Render()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))

	second, err := conf.Render()
	require.NoError(t, err)
	assert.Equal(t, first, second, "same input should render the same document")

	conf.TrackingCode = "another"
	third, err := conf.Render()
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

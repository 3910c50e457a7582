package admission

import (
	"fmt"
	"path"
	"strings"

	"github.com/fmlibermann/website/core"
)

const DefaultMaxAttachmentsSize int64 = 25 * 1024 * 1024

var (
	allowedExtensions = []string{"pdf", "jpg", "jpeg", "png"}

	invalidEmailText = "Please provide a valid email address."
	invalidPhoneText = "Please provide a valid phone number (at least 10 digits)."
	fileTypeText     = "Please upload a valid %s (PDF, JPG or PNG)."
	tooLargeText     = "Total size of uploaded files exceeds %dMB. Please reduce file sizes and try again."
)

type requiredField struct {
	key   string
	name  string
	value string
}

func (ni *NewInquiry) requiredFields() []requiredField {
	return []requiredField{
		{"student_name", "Student Name", ni.StudentName},
		{"date_of_birth", "Date of Birth", ni.DateOfBirth},
		{"gender", "Gender", ni.Gender},
		{"parent_name", "Parent Name", ni.ParentName},
		{"email", "Email", ni.Email},
		{"phone", "Phone", ni.Phone},
		{"form_level", "Form Level", ni.FormLevel},
		{"previous_school", "Previous School", ni.PreviousSchool},
		{"last_grade", "Last Grade", ni.LastGrade},
	}
}

// Validate applies the admission policy to a cleaned NewInquiry.
// Checks run in order and the first failure is returned as a *core.ValidationError with a single field.
// Only declared sizes are looked at, nothing is read.
func (ni *NewInquiry) Validate(maxAttachmentsSize int64) error {
	for _, fld := range ni.requiredFields() {
		if fld.value == "" {
			return core.NewFieldError(fld.key, fld.name+" is required.")
		}
	}

	if !core.IsSimpleEmail(ni.Email) {
		return core.NewFieldError("email", invalidEmailText)
	}
	if !core.IsDigits(ni.Phone) || len(ni.Phone) < 10 {
		return core.NewFieldError("phone", invalidPhoneText)
	}

	var total int64
	for _, slot := range FileSlots {
		up, ok := ni.Files[slot]
		if !ok || up.Filename == "" {
			if slot.Required() {
				return core.NewFieldError(string(slot), fmt.Sprintf(fileTypeText, slot.Label()))
			}
			continue
		}
		if !AllowedFile(up.Filename) {
			return core.NewFieldError(string(slot), fmt.Sprintf(fileTypeText, slot.Label()))
		}
		total += up.Size
	}

	if maxAttachmentsSize <= 0 {
		maxAttachmentsSize = DefaultMaxAttachmentsSize
	}
	if total > maxAttachmentsSize {
		return errTooLarge(maxAttachmentsSize)
	}
	return nil
}

func errTooLarge(max int64) error {
	return core.NewFieldError("attachments", fmt.Sprintf(tooLargeText, max/(1024*1024)))
}

// AllowedFile checks the extension of filename, case-insensitively.
func AllowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

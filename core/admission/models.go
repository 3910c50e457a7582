package admission

import (
	"io"
	"strings"
	"time"

	"github.com/fmlibermann/website/core"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusAccepted       Status = "accepted"
	StatusPaid           Status = "paid"
	StatusRejected       Status = "rejected"
)

var (
	Statuses = []Status{StatusPendingPayment, StatusAccepted, StatusPaid, StatusRejected}

	statusLabels = map[Status]string{
		StatusPendingPayment: "Pending Payment",
		StatusAccepted:       "Accepted",
		StatusPaid:           "Paid",
		StatusRejected:       "Rejected",
	}

	// transitions lists the statuses reachable from each status; staying put is always allowed.
	transitions = map[Status][]Status{
		StatusPendingPayment: {StatusAccepted, StatusPaid, StatusRejected},
		StatusAccepted:       {StatusPaid, StatusRejected},
		StatusPaid:           {StatusAccepted, StatusRejected},
		StatusRejected:       {StatusPendingPayment, StatusAccepted},
	}
)

// ParseStatus only accepts one of Statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(core.CleanString(s, true /* lower */))
	if _, ok := statusLabels[st]; !ok {
		return "", core.NewFieldError("status", "invalid status: "+s)
	}
	return st, nil
}

func (s Status) Label() string { return statusLabels[s] }

func (s Status) CanTransitionTo(to Status) bool {
	if s == to {
		return true
	}
	for _, st := range transitions[s] {
		if st == to {
			return true
		}
	}
	return false
}

// Notifies reports whether parents are emailed when an inquiry enters this status.
func (s Status) Notifies() bool {
	return s == StatusAccepted || s == StatusPaid
}

type FileSlot string

const (
	SlotBirthCertificate    FileSlot = "birth_certificate"
	SlotReportCards         FileSlot = "report_cards"
	SlotTransferCertificate FileSlot = "transfer_certificate"
	SlotMedicalReport       FileSlot = "medical_report"
	SlotParentID            FileSlot = "parent_id"
)

// FileSlots are in the order the application form lists them.
var FileSlots = []FileSlot{
	SlotBirthCertificate,
	SlotReportCards,
	SlotTransferCertificate,
	SlotMedicalReport,
	SlotParentID,
}

func ParseFileSlot(s string) (FileSlot, bool) {
	for _, slot := range FileSlots {
		if string(slot) == s {
			return slot, true
		}
	}
	return "", false
}

// Label is the human name of the slot, eg: "birth certificate".
func (s FileSlot) Label() string { return strings.ReplaceAll(string(s), "_", " ") }

func (s FileSlot) Required() bool { return s != SlotReportCards }

type Inquiry struct {
	ID             int                 `json:"id"`
	TrackingCode   string              `json:"tracking_code"`
	StudentName    string              `json:"student_name"`
	DateOfBirth    string              `json:"date_of_birth"`
	Gender         string              `json:"gender"`
	ParentName     string              `json:"parent_name"`
	Email          string              `json:"email"`
	Phone          string              `json:"phone"`
	FormLevel      string              `json:"form_level"`
	PreviousSchool string              `json:"previous_school"`
	LastGrade      string              `json:"last_grade"`
	Documents      map[FileSlot]string `json:"documents"` // blob references
	Message        string              `json:"message"`
	Status         Status              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"` // UTC
	UpdatedAt      time.Time           `json:"updated_at"` // UTC
}

// Upload is a submitted file; Size is the size declared by the client.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// NewInquiry contains information needed to submit an admission application.
type NewInquiry struct {
	StudentName    string `json:"student_name" form:"student_name"`
	DateOfBirth    string `json:"date_of_birth" form:"date_of_birth"`
	Gender         string `json:"gender" form:"gender"`
	ParentName     string `json:"parent_name" form:"parent_name"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	FormLevel      string `json:"form_level" form:"form_level"`
	PreviousSchool string `json:"previous_school" form:"previous_school"`
	LastGrade      string `json:"last_grade" form:"last_grade"`
	Message        string `json:"message" form:"message"`

	Files map[FileSlot]Upload `json:"-" form:"-"`
}

func (ni *NewInquiry) Clean() {
	ni.StudentName = core.CleanString(ni.StudentName)
	ni.DateOfBirth = core.CleanString(ni.DateOfBirth)
	ni.Gender = core.CleanString(ni.Gender)
	ni.ParentName = core.CleanString(ni.ParentName)
	ni.Email = core.CleanString(ni.Email)
	ni.Phone = core.CleanString(ni.Phone)
	ni.FormLevel = core.CleanString(ni.FormLevel)
	ni.PreviousSchool = core.CleanString(ni.PreviousSchool)
	ni.LastGrade = core.CleanString(ni.LastGrade)
}

// Receipt is the outcome of an accepted submission.
// NotifyErr is set when at least one email could not be sent; the inquiry is saved regardless.
type Receipt struct {
	Inquiry   Inquiry
	Emailed   bool
	NotifyErr error
}

type StatusUpdate struct {
	Inquiry   Inquiry
	Notified  bool
	NotifyErr error
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

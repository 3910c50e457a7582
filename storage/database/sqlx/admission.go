package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/admission"
)

const inquiryTable = "admission_inquiry"

var (
	inquiryColumns = []string{
		"id", "tracking_code", "student_name", "date_of_birth", "gender", "parent_name", "email", "phone",
		"form_level", "previous_school", "last_grade", "birth_certificate", "report_cards",
		"transfer_certificate", "medical_report", "parent_id", "message", "status", "created_at", "updated_at",
	}
	inquiryOrdering = columnSet("id", "student_name", "parent_name", "form_level", "status", "created_at")
)

type inquiryRow struct {
	ID                  int         `db:"id"`
	TrackingCode        string      `db:"tracking_code"`
	StudentName         string      `db:"student_name"`
	DateOfBirth         string      `db:"date_of_birth"`
	Gender              string      `db:"gender"`
	ParentName          string      `db:"parent_name"`
	Email               string      `db:"email"`
	Phone               string      `db:"phone"`
	FormLevel           string      `db:"form_level"`
	PreviousSchool      string      `db:"previous_school"`
	LastGrade           string      `db:"last_grade"`
	BirthCertificate    null.String `db:"birth_certificate"`
	ReportCards         null.String `db:"report_cards"`
	TransferCertificate null.String `db:"transfer_certificate"`
	MedicalReport       null.String `db:"medical_report"`
	ParentID            null.String `db:"parent_id"`
	Message             null.String `db:"message"`
	Status              string      `db:"status"`
	CreatedAt           time.Time   `db:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at"`
}

// slots maps every file slot to its column.
func (row *inquiryRow) slots() map[admission.FileSlot]*null.String {
	return map[admission.FileSlot]*null.String{
		admission.SlotBirthCertificate:    &row.BirthCertificate,
		admission.SlotReportCards:         &row.ReportCards,
		admission.SlotTransferCertificate: &row.TransferCertificate,
		admission.SlotMedicalReport:       &row.MedicalReport,
		admission.SlotParentID:            &row.ParentID,
	}
}

func boilInquiry(inq admission.Inquiry) inquiryRow {
	row := inquiryRow{
		ID:             inq.ID,
		TrackingCode:   inq.TrackingCode,
		StudentName:    inq.StudentName,
		DateOfBirth:    inq.DateOfBirth,
		Gender:         inq.Gender,
		ParentName:     inq.ParentName,
		Email:          inq.Email,
		Phone:          inq.Phone,
		FormLevel:      inq.FormLevel,
		PreviousSchool: inq.PreviousSchool,
		LastGrade:      inq.LastGrade,
		Message:        null.NewString(inq.Message, inq.Message != ""),
		Status:         string(inq.Status),
		CreatedAt:      inq.CreatedAt.UTC(),
		UpdatedAt:      inq.UpdatedAt.UTC(),
	}
	for slot, col := range row.slots() {
		ref := inq.Documents[slot]
		*col = null.NewString(ref, ref != "")
	}
	return row
}

func unboilInquiry(row inquiryRow) admission.Inquiry {
	inq := admission.Inquiry{
		ID:             row.ID,
		TrackingCode:   row.TrackingCode,
		StudentName:    row.StudentName,
		DateOfBirth:    row.DateOfBirth,
		Gender:         row.Gender,
		ParentName:     row.ParentName,
		Email:          row.Email,
		Phone:          row.Phone,
		FormLevel:      row.FormLevel,
		PreviousSchool: row.PreviousSchool,
		LastGrade:      row.LastGrade,
		Documents:      make(map[admission.FileSlot]string),
		Message:        row.Message.String,
		Status:         admission.Status(row.Status),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	for slot, col := range row.slots() {
		if col.Valid {
			inq.Documents[slot] = col.String
		}
	}
	return inq
}

type admissionRepository struct {
	executor
}

var _ admission.Repository = (*admissionRepository)(nil) // interface compliance check

func NewAdmissionRepository(db *sqlx.DB) admission.Repository {
	return &admissionRepository{executor{db}}
}

func (repo *admissionRepository) CreateInquiry(ctx context.Context, inq admission.Inquiry) (admission.Inquiry, error) {
	row := boilInquiry(inq)
	q := psql.Insert(inquiryTable).
		Columns(inquiryColumns[1:]...).
		Values(
			row.TrackingCode, row.StudentName, row.DateOfBirth, row.Gender, row.ParentName, row.Email, row.Phone,
			row.FormLevel, row.PreviousSchool, row.LastGrade, row.BirthCertificate, row.ReportCards,
			row.TransferCertificate, row.MedicalReport, row.ParentID, row.Message, row.Status, row.CreatedAt, row.UpdatedAt,
		)
	id, err := repo.insert(ctx, q)
	if err != nil {
		return admission.Inquiry{}, errors.Wrap(err, "inserting inquiry")
	}
	row.ID = id
	return unboilInquiry(row), nil
}

func (repo *admissionRepository) GetInquiry(ctx context.Context, id int) (admission.Inquiry, error) {
	var row inquiryRow
	q := psql.Select(inquiryColumns...).From(inquiryTable).Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, q); err != nil {
		if isNoRows(err) {
			return admission.Inquiry{}, admission.ErrNotFound
		}
		return admission.Inquiry{}, errors.Wrap(err, "selecting inquiry")
	}
	return unboilInquiry(row), nil
}

func (repo *admissionRepository) QueryInquiries(ctx context.Context, filter admission.QueryFilter, ordering ...core.DBOrdering) ([]admission.Inquiry, error) {
	q := psql.Select(inquiryColumns...).From(inquiryTable)
	if filter.Search != "" {
		q = q.Where(search(filter.Search, "student_name", "parent_name", "email"))
	}
	q = orderBy(q, inquiryOrdering, ordering)

	var rows []inquiryRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting inquiries")
	}
	inqs := make([]admission.Inquiry, 0, len(rows))
	for _, row := range rows {
		inqs = append(inqs, unboilInquiry(row))
	}
	return inqs, nil
}

func (repo *admissionRepository) UpdateInquiryStatus(ctx context.Context, id int, status admission.Status, updatedAt time.Time) (admission.Inquiry, error) {
	q := psql.Update(inquiryTable).
		Set("status", string(status)).
		Set("updated_at", updatedAt.UTC()).
		Where(sq.Eq{"id": id})
	res, err := repo.exec(ctx, q)
	if err != nil {
		return admission.Inquiry{}, errors.Wrap(err, "updating inquiry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return admission.Inquiry{}, admission.ErrNotFound
	}
	return repo.GetInquiry(ctx, id)
}

func (repo *admissionRepository) CountInquiries(ctx context.Context) (int, error) {
	return repo.count(ctx, inquiryTable)
}

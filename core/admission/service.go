package admission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/document"
)

var (
	// errors
	ErrNotFound         = errors.New("admission inquiry not found")
	ErrDocumentNotFound = errors.New("document not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateInquiry(ctx context.Context, inq Inquiry) (Inquiry, error)
		GetInquiry(ctx context.Context, id int) (Inquiry, error)
		// QueryInquiries does a case-insensitive substring match of QueryFilter.Search on one of
		// Inquiry.StudentName, Inquiry.ParentName or Inquiry.Email.
		QueryInquiries(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Inquiry, error)
		UpdateInquiryStatus(ctx context.Context, id int, status Status, updatedAt time.Time) (Inquiry, error)
		CountInquiries(ctx context.Context) (int, error)
	}

	Service struct {
		repo    Repository
		blobs   core.BlobStore
		mailer  *core.Mailer
		logger  core.Logger
		school  mail.Address
		appName string
		payment document.PaymentDetails
		maxSize int64
	}
)

func NewService(repo Repository, blobs core.BlobStore, mailer *core.Mailer, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		blobs:   blobs,
		mailer:  mailer,
		logger:  logger,
		school:  conf.SchoolAddress(),
		appName: conf.AppName,
		payment: document.PaymentDetails{
			BankName:      conf.Admission.BankName,
			AccountNumber: conf.Admission.AccountNumber,
			Amount:        conf.Admission.FeeAmount,
			ProofEmail:    conf.Admission.PaymentEmail,
		},
		maxSize: conf.Admission.MaxAttachmentsSize,
	}
}

type storedFile struct {
	slot    FileSlot
	key     string
	content []byte
}

// Submit validates ni, stores its files, saves the inquiry and then emails the parent and the school.
// Once the inquiry is saved the submission is never failed: email problems are reported in Receipt.NotifyErr.
func (svc *Service) Submit(ctx context.Context, ni NewInquiry) (Receipt, error) {
	ni.Clean()
	if err := ni.Validate(svc.maxSize); err != nil {
		return Receipt{}, err
	}

	code, err := uuid.NewRandom()
	if err != nil {
		return Receipt{}, errors.Wrap(err, "generating tracking code")
	}
	trackingCode := code.String()

	files, err := svc.readFiles(trackingCode, ni)
	if err != nil {
		return Receipt{}, err
	}

	now := nowFunc().UTC()
	inq := Inquiry{
		TrackingCode:   trackingCode,
		StudentName:    ni.StudentName,
		DateOfBirth:    ni.DateOfBirth,
		Gender:         ni.Gender,
		ParentName:     ni.ParentName,
		Email:          ni.Email,
		Phone:          ni.Phone,
		FormLevel:      ni.FormLevel,
		PreviousSchool: ni.PreviousSchool,
		LastGrade:      ni.LastGrade,
		Documents:      make(map[FileSlot]string, len(files)),
		Message:        ni.Message,
		Status:         StatusPendingPayment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// blobs already written are kept when a later write fails
	attachments := make([]core.Attachment, 0, len(files))
	for _, f := range files {
		ref, err := svc.blobs.Put(ctx, f.key, bytes.NewReader(f.content))
		if err != nil {
			return Receipt{}, core.NewStorageError("storing "+f.slot.Label(), err)
		}
		inq.Documents[f.slot] = ref
		attachments = append(attachments, core.NewAttachment(path.Base(f.key), f.content))
	}

	if inq, err = svc.repo.CreateInquiry(ctx, inq); err != nil {
		return Receipt{}, core.NewStorageError("saving inquiry", err)
	}
	svc.logger.Info(fmt.Sprintf("admission inquiry %d saved (tracking code %s)", inq.ID, inq.TrackingCode))

	receipt := Receipt{Inquiry: inq}
	receipt.NotifyErr = joinNotificationErrors(
		svc.notifyParent(ctx, inq),
		svc.notifySchool(ctx, inq, attachments),
	)
	receipt.Emailed = receipt.NotifyErr == nil
	return receipt, nil
}

// readFiles loads the uploads in memory, enforcing the size limit on what is actually read.
func (svc *Service) readFiles(trackingCode string, ni NewInquiry) ([]storedFile, error) {
	maxSize := svc.maxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxAttachmentsSize
	}

	var total int64
	files := make([]storedFile, 0, len(ni.Files))
	for _, slot := range FileSlots {
		up, ok := ni.Files[slot]
		if !ok || up.Filename == "" || up.Content == nil {
			continue
		}
		content, err := io.ReadAll(io.LimitReader(up.Content, maxSize-total+1))
		if err != nil {
			return nil, core.NewStorageError("reading "+slot.Label(), err)
		}
		total += int64(len(content))
		if total > maxSize {
			return nil, errTooLarge(maxSize)
		}
		files = append(files, storedFile{
			slot:    slot,
			key:     BlobKey(trackingCode, slot, ni.StudentName, up.Filename),
			content: content,
		})
	}
	return files, nil
}

// maxBlobNameLen bounds the file name part of a blob key, extension included.
const maxBlobNameLen = 128

// BlobKey is where an upload is stored: admissions/<tracking code>/<slot>_<student>_<filename>.
// Long names are cut to maxBlobNameLen, keeping the extension.
func BlobKey(trackingCode string, slot FileSlot, studentName, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	name := core.SecureFilename(fmt.Sprintf("%s_%s_%s", slot, studentName, base))
	if len(name) > maxBlobNameLen {
		ext := path.Ext(name)
		if len(ext) > 8 {
			ext = ""
		}
		name = strings.TrimRight(name[:maxBlobNameLen-len(ext)], "._-") + ext
	}
	return path.Join("admissions", trackingCode, name)
}

func (svc *Service) confirmation(inq Inquiry) document.Confirmation {
	return document.Confirmation{
		SchoolName:   svc.appName,
		StudentName:  inq.StudentName,
		ParentName:   inq.ParentName,
		FormLevel:    inq.FormLevel,
		TrackingCode: inq.TrackingCode,
		Status:       inq.Status.Label(),
		Timestamp:    inq.CreatedAt,
		Payment:      svc.payment,
	}
}

func (svc *Service) notifyParent(ctx context.Context, inq Inquiry) error {
	pdf, err := svc.confirmation(inq).Render()
	if err != nil {
		svc.logger.Error("rendering admission confirmation", err)
		return core.NewNotificationError("notifying parent", err)
	}

	msg := core.EmailMessage{
		To:           []mail.Address{{Name: inq.ParentName, Address: inq.Email}},
		Subject:      "Admission Application Confirmation - " + svc.appName,
		TemplateName: "admission_parent",
		TemplateData: inq,
	}
	msg.Attach(core.NewAttachment(
		core.SecureFilename("Admission_Confirmation_"+inq.StudentName+".pdf"), pdf, "application/pdf",
	))
	return svc.mailer.Send(ctx, "notifying parent", msg)
}

func (svc *Service) notifySchool(ctx context.Context, inq Inquiry, attachments []core.Attachment) error {
	msg := core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Admission Inquiry from " + inq.ParentName,
		TemplateName: "admission_school",
		TemplateData: inq,
		Attachments:  attachments,
	}
	return svc.mailer.Send(ctx, "notifying school", msg)
}

func joinNotificationErrors(errs ...error) error {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return failed[0]
	}
	msg := failed[0].Error()
	for _, err := range failed[1:] {
		msg += "; " + err.Error()
	}
	return core.NewNotificationError("notifying parent and school", errors.New(msg))
}

// UpdateStatus moves an inquiry to status and emails the parent when the new status calls for it.
// A failed email does not undo the update.
func (svc *Service) UpdateStatus(ctx context.Context, id int, status string) (StatusUpdate, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return StatusUpdate{}, err
	}

	inq, err := svc.repo.GetInquiry(ctx, id)
	if err != nil {
		return StatusUpdate{}, errors.Wrap(err, "getting inquiry")
	}
	if !inq.Status.CanTransitionTo(st) {
		return StatusUpdate{}, core.NewFieldError(
			"status", fmt.Sprintf("cannot change status from %q to %q", inq.Status, st),
		)
	}

	if inq, err = svc.repo.UpdateInquiryStatus(ctx, id, st, nowFunc().UTC()); err != nil {
		return StatusUpdate{}, core.NewStorageError("updating inquiry status", err)
	}
	svc.logger.Info(fmt.Sprintf("admission inquiry %d status set to %s", inq.ID, inq.Status))

	res := StatusUpdate{Inquiry: inq}
	if st.Notifies() {
		msg := core.EmailMessage{
			To:           []mail.Address{{Name: inq.ParentName, Address: inq.Email}},
			Subject:      "Admission Application Update - " + svc.appName,
			TemplateName: "admission_status",
			TemplateData: inq,
		}
		res.NotifyErr = svc.mailer.Send(ctx, "notifying parent of status update", msg)
		res.Notified = res.NotifyErr == nil
	}
	return res, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Inquiry, error) {
	return svc.repo.GetInquiry(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Inquiry, error) {
	filter.Clean()
	return svc.repo.QueryInquiries(ctx, filter, ordering...)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountInquiries(ctx)
}

// Document loads one of the files stored with an inquiry.
func (svc *Service) Document(ctx context.Context, id int, slot FileSlot) (core.Attachment, error) {
	inq, err := svc.repo.GetInquiry(ctx, id)
	if err != nil {
		return core.Attachment{}, errors.Wrap(err, "getting inquiry")
	}
	ref, ok := inq.Documents[slot]
	if !ok || ref == "" {
		return core.Attachment{}, ErrDocumentNotFound
	}
	content, err := svc.blobs.Get(ctx, ref)
	if err != nil {
		if errors.Cause(err) == core.ErrBlobNotFound {
			return core.Attachment{}, ErrDocumentNotFound
		}
		return core.Attachment{}, errors.Wrap(err, "loading document")
	}
	return core.NewAttachment(path.Base(ref), content), nil
}

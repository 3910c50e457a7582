package contact

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

var nowFunc = time.Now // mockable

type (
	Repository interface {
		CreateContact(ctx context.Context, c Contact) (Contact, error)
		// QueryContacts does a case-insensitive substring match of QueryFilter.Search on one of
		// Contact.Name, Contact.Email or Contact.Message.
		QueryContacts(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Contact, error)
		CountContacts(ctx context.Context) (int, error)
	}

	Service struct {
		repo     Repository
		mailer   *core.Mailer
		validate *validator.Validate
		school   mail.Address
		appName  string
	}
)

func NewService(repo Repository, mailer *core.Mailer, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailer:   mailer,
		validate: validate,
		school:   conf.SchoolAddress(),
		appName:  conf.AppName,
	}
}

// Create saves the message and forwards it to the school.
// When the school cannot be emailed the saved Contact is returned along with a *core.NotificationError.
func (svc *Service) Create(ctx context.Context, nc NewContact) (Contact, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Contact{}, err
	}

	c, err := svc.repo.CreateContact(ctx, Contact{
		Name:      nc.Name,
		Email:     nc.Email,
		Message:   nc.Message,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Contact{}, core.NewStorageError("saving contact", err)
	}

	err = svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Contact Form Submission from " + c.Name,
		TemplateName: "contact_school",
		TemplateData: c,
	})
	return c, err
}

// RequestVisit emails the school and confirms to the applicant.
// Nothing is saved, so a failed email fails the request.
func (svc *Service) RequestVisit(ctx context.Context, vr VisitRequest) error {
	if err := vr.Validate(svc.validate); err != nil {
		return err
	}
	if err := svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Visit Application from " + vr.Name,
		TemplateName: "visit_school",
		TemplateData: vr,
	}); err != nil {
		return err
	}
	return svc.mailer.Send(ctx, "confirming visit", core.EmailMessage{
		To:           []mail.Address{{Name: vr.Name, Address: vr.Email}},
		Subject:      "Visit Application Confirmation - " + svc.appName,
		TemplateName: "visit_applicant",
		TemplateData: vr,
	})
}

// SignUpVolunteer emails the sign-up to the school. Nothing is saved.
func (svc *Service) SignUpVolunteer(ctx context.Context, vr VolunteerRequest) error {
	if err := vr.Validate(svc.validate); err != nil {
		return err
	}
	return svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Volunteer Sign-Up from " + vr.Name,
		TemplateName: "volunteer_school",
		TemplateData: vr,
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Contact, error) {
	filter.Clean()
	contacts, err := svc.repo.QueryContacts(ctx, filter, ordering...)
	return contacts, errors.Wrap(err, "querying contacts")
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountContacts(ctx)
}

package community

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
		CreateParent(ctx context.Context, p Parent) (Parent, error)
		// QueryParents matches QueryFilter.Search on one of Parent.Name, Parent.Email or Parent.StudentName.
		QueryParents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Parent, error)
		CountParents(ctx context.Context) (int, error)

		CreateAlumnus(ctx context.Context, a Alumnus) (Alumnus, error)
		// QueryAlumni matches QueryFilter.Search on one of Alumnus.Name, Alumnus.Email or Alumnus.Profession.
		QueryAlumni(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Alumnus, error)
		CountAlumni(ctx context.Context) (int, error)
	}

	Service struct {
		repo     Repository
		mailer   *core.Mailer
		validate *validator.Validate
		school   mail.Address
	}
)

func NewService(repo Repository, mailer *core.Mailer, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailer:   mailer,
		validate: validate,
		school:   conf.SchoolAddress(),
	}
}

// RegisterParent saves the registration and forwards it to the school.
// When the school cannot be emailed the saved Parent is returned along with a *core.NotificationError.
func (svc *Service) RegisterParent(ctx context.Context, np NewParent) (Parent, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Parent{}, err
	}

	p, err := svc.repo.CreateParent(ctx, Parent{
		Name:              np.Name,
		Email:             np.Email,
		StudentName:       np.StudentName,
		Phone:             np.Phone,
		VolunteerInterest: np.VolunteerInterest,
		CreatedAt:         nowFunc().UTC(),
	})
	if err != nil {
		return Parent{}, core.NewStorageError("saving parent", err)
	}

	err = svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Parent Registration from " + p.Name,
		TemplateName: "parent_school",
		TemplateData: p,
	})
	return p, err
}

// RegisterAlumnus works like RegisterParent.
func (svc *Service) RegisterAlumnus(ctx context.Context, na NewAlumnus) (Alumnus, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Alumnus{}, err
	}

	a, err := svc.repo.CreateAlumnus(ctx, Alumnus{
		Name:               na.Name,
		Email:              na.Email,
		GraduationYear:     na.GraduationYear,
		Profession:         na.Profession,
		MentorshipInterest: na.MentorshipInterest,
		CreatedAt:          nowFunc().UTC(),
	})
	if err != nil {
		return Alumnus{}, core.NewStorageError("saving alumnus", err)
	}

	err = svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Alumni Registration from " + a.Name,
		TemplateName: "alumnus_school",
		TemplateData: a,
	})
	return a, err
}

func (svc *Service) QueryParents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Parent, error) {
	filter.Clean()
	parents, err := svc.repo.QueryParents(ctx, filter, ordering...)
	return parents, errors.Wrap(err, "querying parents")
}

func (svc *Service) QueryAlumni(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Alumnus, error) {
	filter.Clean()
	alumni, err := svc.repo.QueryAlumni(ctx, filter, ordering...)
	return alumni, errors.Wrap(err, "querying alumni")
}

func (svc *Service) CountParents(ctx context.Context) (int, error) {
	return svc.repo.CountParents(ctx)
}

func (svc *Service) CountAlumni(ctx context.Context) (int, error) {
	return svc.repo.CountAlumni(ctx)
}

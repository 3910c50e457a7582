package feedback

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

var (
	// errors
	ErrNotFound = errors.New("feedback not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		GetFeedback(ctx context.Context, id int) (Feedback, error)
		QueryFeedback(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Feedback, error)
		ApproveFeedback(ctx context.Context, id int) (Feedback, error)
		DeleteFeedback(ctx context.Context, id int) error
		CountFeedback(ctx context.Context, filter QueryFilter) (int, error)
	}

	Service struct {
		repo     Repository
		mailer   *core.Mailer
		validate *validator.Validate
		school   mail.Address
	}

	Counts struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
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

// Create saves unapproved feedback and sends it to the school for moderation.
// When the school cannot be emailed the saved Feedback is returned along with a *core.NotificationError.
func (svc *Service) Create(ctx context.Context, nf NewFeedback) (Feedback, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return Feedback{}, err
	}

	fb, err := svc.repo.CreateFeedback(ctx, Feedback{
		Name:      nf.Name,
		Role:      nf.Role,
		Comment:   nf.Comment,
		Rating:    nf.Rating,
		Approved:  false,
		CreatedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Feedback{}, core.NewStorageError("saving feedback", err)
	}

	err = svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Feedback Submission from " + fb.Name,
		TemplateName: "feedback_school",
		TemplateData: fb,
	})
	return fb, err
}

// QueryApproved lists what may be shown publicly.
func (svc *Service) QueryApproved(ctx context.Context) ([]Feedback, error) {
	approved := true
	fbs, err := svc.repo.QueryFeedback(ctx, QueryFilter{Approved: &approved}, core.DBOrdering{Field: "created_at"})
	return fbs, errors.Wrap(err, "querying approved feedback")
}

func (svc *Service) QueryAll(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Feedback, error) {
	fbs, err := svc.repo.QueryFeedback(ctx, filter, ordering...)
	return fbs, errors.Wrap(err, "querying feedback")
}

func (svc *Service) Approve(ctx context.Context, id int) (Feedback, error) {
	return svc.repo.ApproveFeedback(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteFeedback(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (Counts, error) {
	total, err := svc.repo.CountFeedback(ctx, QueryFilter{})
	if err != nil {
		return Counts{}, errors.Wrap(err, "counting feedback")
	}
	approved := false
	pending, err := svc.repo.CountFeedback(ctx, QueryFilter{Approved: &approved})
	if err != nil {
		return Counts{}, errors.Wrap(err, "counting pending feedback")
	}
	return Counts{Total: total, Pending: pending}, nil
}

package newsletter

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
	ErrNotFound          = errors.New("subscriber not found")
	ErrAlreadySubscribed = errors.New("this email is already subscribed")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateSubscriber returns ErrAlreadySubscribed if the email is taken.
		CreateSubscriber(ctx context.Context, s Subscriber) (Subscriber, error)
		// GetSubscriberByEmail returns ErrNotFound if there is none.
		GetSubscriberByEmail(ctx context.Context, email string) (Subscriber, error)
		// QuerySubscribers matches QueryFilter.Search on Subscriber.Email.
		QuerySubscribers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Subscriber, error)
		CountSubscribers(ctx context.Context) (int, error)
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

// Subscribe saves a new subscriber, confirms to them and notifies the school.
// When either email fails the saved Subscriber is returned along with a *core.NotificationError.
func (svc *Service) Subscribe(ctx context.Context, ns NewSubscriber) (Subscriber, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Subscriber{}, err
	}

	if _, err := svc.repo.GetSubscriberByEmail(ctx, ns.Email); err == nil {
		return Subscriber{}, ErrAlreadySubscribed
	} else if errors.Cause(err) != ErrNotFound {
		return Subscriber{}, errors.Wrap(err, "checking subscriber")
	}

	sub, err := svc.repo.CreateSubscriber(ctx, Subscriber{Email: ns.Email, CreatedAt: nowFunc().UTC()})
	if err != nil {
		if errors.Cause(err) == ErrAlreadySubscribed {
			return Subscriber{}, ErrAlreadySubscribed
		}
		return Subscriber{}, core.NewStorageError("saving subscriber", err)
	}

	confirmErr := svc.mailer.Send(ctx, "confirming subscription", core.EmailMessage{
		To:           []mail.Address{{Address: sub.Email}},
		Subject:      "Newsletter Subscription Confirmation - " + svc.appName,
		TemplateName: "newsletter_subscriber",
		TemplateData: sub,
	})
	noticeErr := svc.mailer.Send(ctx, "notifying school", core.EmailMessage{
		To:           []mail.Address{svc.school},
		Subject:      "New Newsletter Subscription from " + sub.Email,
		TemplateName: "newsletter_school",
		TemplateData: sub,
	})
	if confirmErr != nil {
		return sub, confirmErr
	}
	return sub, noticeErr
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Subscriber, error) {
	filter.Clean()
	subs, err := svc.repo.QuerySubscribers(ctx, filter, ordering...)
	return subs, errors.Wrap(err, "querying subscribers")
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountSubscribers(ctx)
}

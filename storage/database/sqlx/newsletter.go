package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/newsletter"
)

const subscriberTable = "subscriber"

var (
	subscriberColumns  = []string{"id", "email", "created_at"}
	subscriberOrdering = columnSet("id", "email", "created_at")
)

type subscriberRow struct {
	ID        int       `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (row subscriberRow) unboil() newsletter.Subscriber {
	return newsletter.Subscriber{ID: row.ID, Email: row.Email, CreatedAt: row.CreatedAt.UTC()}
}

type newsletterRepository struct {
	executor
}

var _ newsletter.Repository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *sqlx.DB) newsletter.Repository {
	return &newsletterRepository{executor{db}}
}

func (repo *newsletterRepository) CreateSubscriber(ctx context.Context, sub newsletter.Subscriber) (newsletter.Subscriber, error) {
	q := psql.Insert(subscriberTable).
		Columns(subscriberColumns[1:]...).
		Values(sub.Email, sub.CreatedAt.UTC())
	id, err := repo.insert(ctx, q)
	if err != nil {
		if isUniqueViolation(err) {
			return newsletter.Subscriber{}, newsletter.ErrAlreadySubscribed
		}
		return newsletter.Subscriber{}, errors.Wrap(err, "inserting subscriber")
	}
	sub.ID = id
	return sub, nil
}

func (repo *newsletterRepository) GetSubscriberByEmail(ctx context.Context, email string) (newsletter.Subscriber, error) {
	var row subscriberRow
	q := psql.Select(subscriberColumns...).From(subscriberTable).Where(sq.Eq{"email": email})
	if err := repo.get(ctx, &row, q); err != nil {
		if isNoRows(err) {
			return newsletter.Subscriber{}, newsletter.ErrNotFound
		}
		return newsletter.Subscriber{}, errors.Wrap(err, "selecting subscriber")
	}
	return row.unboil(), nil
}

func (repo *newsletterRepository) QuerySubscribers(ctx context.Context, filter newsletter.QueryFilter, ordering ...core.DBOrdering) ([]newsletter.Subscriber, error) {
	q := psql.Select(subscriberColumns...).From(subscriberTable)
	if filter.Search != "" {
		q = q.Where(search(filter.Search, "email"))
	}
	q = orderBy(q, subscriberOrdering, ordering)

	var rows []subscriberRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting subscribers")
	}
	subs := make([]newsletter.Subscriber, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unboil())
	}
	return subs, nil
}

func (repo *newsletterRepository) CountSubscribers(ctx context.Context) (int, error) {
	return repo.count(ctx, subscriberTable)
}

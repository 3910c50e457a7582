package inmemdb

import (
	"context"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/newsletter"
)

var subscriberComparators = comparators[newsletter.Subscriber]{
	"id":         func(a, b newsletter.Subscriber) int { return compareInts(a.ID, b.ID) },
	"email":      func(a, b newsletter.Subscriber) int { return compareStrings(a.Email, b.Email) },
	"created_at": func(a, b newsletter.Subscriber) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type newsletterRepository struct {
	db *table[newsletter.Subscriber]
}

var _ newsletter.Repository = (*newsletterRepository)(nil) // interface compliance check

func NewNewsletterRepository(db *DB) newsletter.Repository {
	return &newsletterRepository{db: db.subscriber}
}

func (repo *newsletterRepository) CreateSubscriber(_ context.Context, sub newsletter.Subscriber) (newsletter.Subscriber, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.rows {
		if s.Email == sub.Email {
			return newsletter.Subscriber{}, newsletter.ErrAlreadySubscribed
		}
	}
	sub.ID = repo.db.nextPK()
	repo.db.rows[sub.ID] = sub
	return sub, nil
}

func (repo *newsletterRepository) GetSubscriberByEmail(_ context.Context, email string) (newsletter.Subscriber, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.rows {
		if s.Email == email {
			return s, nil
		}
	}
	return newsletter.Subscriber{}, newsletter.ErrNotFound
}

func (repo *newsletterRepository) QuerySubscribers(_ context.Context, filter newsletter.QueryFilter, ordering ...core.DBOrdering) ([]newsletter.Subscriber, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]newsletter.Subscriber, 0, len(repo.db.rows))
	for _, s := range repo.db.all() {
		if matches(filter.Search, s.Email) {
			subs = append(subs, s)
		}
	}
	order(subs, subscriberComparators, ordering)
	return subs, nil
}

func (repo *newsletterRepository) CountSubscribers(context.Context) (int, error) {
	return repo.db.count(), nil
}

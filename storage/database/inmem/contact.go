package inmemdb

import (
	"context"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/contact"
)

var contactComparators = comparators[contact.Contact]{
	"id":         func(a, b contact.Contact) int { return compareInts(a.ID, b.ID) },
	"name":       func(a, b contact.Contact) int { return compareStrings(a.Name, b.Name) },
	"email":      func(a, b contact.Contact) int { return compareStrings(a.Email, b.Email) },
	"created_at": func(a, b contact.Contact) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type contactRepository struct {
	db *table[contact.Contact]
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *DB) contact.Repository {
	return &contactRepository{db: db.contact}
}

func (repo *contactRepository) CreateContact(_ context.Context, c contact.Contact) (contact.Contact, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = repo.db.nextPK()
	repo.db.rows[c.ID] = c
	return c, nil
}

func (repo *contactRepository) QueryContacts(_ context.Context, filter contact.QueryFilter, ordering ...core.DBOrdering) ([]contact.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := make([]contact.Contact, 0, len(repo.db.rows))
	for _, c := range repo.db.all() {
		if matches(filter.Search, c.Name, c.Email, c.Message) {
			contacts = append(contacts, c)
		}
	}
	order(contacts, contactComparators, ordering)
	return contacts, nil
}

func (repo *contactRepository) CountContacts(context.Context) (int, error) {
	return repo.db.count(), nil
}

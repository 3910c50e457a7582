package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/contact"
)

const contactTable = "contact"

var (
	contactColumns  = []string{"id", "name", "email", "message", "created_at"}
	contactOrdering = columnSet("id", "name", "email", "created_at")
)

type contactRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

func (row contactRow) unboil() contact.Contact {
	return contact.Contact{ID: row.ID, Name: row.Name, Email: row.Email, Message: row.Message, CreatedAt: row.CreatedAt.UTC()}
}

type contactRepository struct {
	executor
}

var _ contact.Repository = (*contactRepository)(nil) // interface compliance check

func NewContactRepository(db *sqlx.DB) contact.Repository {
	return &contactRepository{executor{db}}
}

func (repo *contactRepository) CreateContact(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	q := psql.Insert(contactTable).
		Columns(contactColumns[1:]...).
		Values(c.Name, c.Email, c.Message, c.CreatedAt.UTC())
	id, err := repo.insert(ctx, q)
	if err != nil {
		return contact.Contact{}, errors.Wrap(err, "inserting contact")
	}
	c.ID = id
	return c, nil
}

func (repo *contactRepository) QueryContacts(ctx context.Context, filter contact.QueryFilter, ordering ...core.DBOrdering) ([]contact.Contact, error) {
	q := psql.Select(contactColumns...).From(contactTable)
	if filter.Search != "" {
		q = q.Where(search(filter.Search, "name", "email", "message"))
	}
	q = orderBy(q, contactOrdering, ordering)

	var rows []contactRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting contacts")
	}
	contacts := make([]contact.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.unboil())
	}
	return contacts, nil
}

func (repo *contactRepository) CountContacts(ctx context.Context) (int, error) {
	return repo.count(ctx, contactTable)
}

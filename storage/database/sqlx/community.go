package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/community"
)

const (
	parentTable  = "parent"
	alumnusTable = "alumnus"
)

var (
	parentColumns   = []string{"id", "name", "email", "student_name", "phone", "volunteer_interest", "created_at"}
	parentOrdering  = columnSet("id", "name", "student_name", "created_at")
	alumnusColumns  = []string{"id", "name", "email", "graduation_year", "profession", "mentorship_interest", "created_at"}
	alumnusOrdering = columnSet("id", "name", "graduation_year", "created_at")
)

type parentRow struct {
	ID                int         `db:"id"`
	Name              string      `db:"name"`
	Email             string      `db:"email"`
	StudentName       null.String `db:"student_name"`
	Phone             null.String `db:"phone"`
	VolunteerInterest bool        `db:"volunteer_interest"`
	CreatedAt         time.Time   `db:"created_at"`
}

func (row parentRow) unboil() community.Parent {
	return community.Parent{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		StudentName:       row.StudentName.String,
		Phone:             row.Phone.String,
		VolunteerInterest: row.VolunteerInterest,
		CreatedAt:         row.CreatedAt.UTC(),
	}
}

type alumnusRow struct {
	ID                 int         `db:"id"`
	Name               string      `db:"name"`
	Email              string      `db:"email"`
	GraduationYear     int         `db:"graduation_year"`
	Profession         null.String `db:"profession"`
	MentorshipInterest bool        `db:"mentorship_interest"`
	CreatedAt          time.Time   `db:"created_at"`
}

func (row alumnusRow) unboil() community.Alumnus {
	return community.Alumnus{
		ID:                 row.ID,
		Name:               row.Name,
		Email:              row.Email,
		GraduationYear:     row.GraduationYear,
		Profession:         row.Profession.String,
		MentorshipInterest: row.MentorshipInterest,
		CreatedAt:          row.CreatedAt.UTC(),
	}
}

type communityRepository struct {
	executor
}

var _ community.Repository = (*communityRepository)(nil) // interface compliance check

func NewCommunityRepository(db *sqlx.DB) community.Repository {
	return &communityRepository{executor{db}}
}

func (repo *communityRepository) CreateParent(ctx context.Context, p community.Parent) (community.Parent, error) {
	q := psql.Insert(parentTable).
		Columns(parentColumns[1:]...).
		Values(
			p.Name, p.Email, null.NewString(p.StudentName, p.StudentName != ""),
			null.NewString(p.Phone, p.Phone != ""), p.VolunteerInterest, p.CreatedAt.UTC(),
		)
	id, err := repo.insert(ctx, q)
	if err != nil {
		return community.Parent{}, errors.Wrap(err, "inserting parent")
	}
	p.ID = id
	return p, nil
}

func (repo *communityRepository) QueryParents(ctx context.Context, filter community.QueryFilter, ordering ...core.DBOrdering) ([]community.Parent, error) {
	q := psql.Select(parentColumns...).From(parentTable)
	if filter.Search != "" {
		q = q.Where(search(filter.Search, "name", "email", "student_name"))
	}
	q = orderBy(q, parentOrdering, ordering)

	var rows []parentRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting parents")
	}
	parents := make([]community.Parent, 0, len(rows))
	for _, row := range rows {
		parents = append(parents, row.unboil())
	}
	return parents, nil
}

func (repo *communityRepository) CountParents(ctx context.Context) (int, error) {
	return repo.count(ctx, parentTable)
}

func (repo *communityRepository) CreateAlumnus(ctx context.Context, a community.Alumnus) (community.Alumnus, error) {
	q := psql.Insert(alumnusTable).
		Columns(alumnusColumns[1:]...).
		Values(
			a.Name, a.Email, a.GraduationYear, null.NewString(a.Profession, a.Profession != ""),
			a.MentorshipInterest, a.CreatedAt.UTC(),
		)
	id, err := repo.insert(ctx, q)
	if err != nil {
		return community.Alumnus{}, errors.Wrap(err, "inserting alumnus")
	}
	a.ID = id
	return a, nil
}

func (repo *communityRepository) QueryAlumni(ctx context.Context, filter community.QueryFilter, ordering ...core.DBOrdering) ([]community.Alumnus, error) {
	q := psql.Select(alumnusColumns...).From(alumnusTable)
	if filter.Search != "" {
		q = q.Where(search(filter.Search, "name", "email", "profession"))
	}
	q = orderBy(q, alumnusOrdering, ordering)

	var rows []alumnusRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting alumni")
	}
	alumni := make([]community.Alumnus, 0, len(rows))
	for _, row := range rows {
		alumni = append(alumni, row.unboil())
	}
	return alumni, nil
}

func (repo *communityRepository) CountAlumni(ctx context.Context) (int, error) {
	return repo.count(ctx, alumnusTable)
}

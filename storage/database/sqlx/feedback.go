package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
	"github.com/fmlibermann/website/core/feedback"
)

const feedbackTable = "feedback"

var (
	feedbackColumns  = []string{"id", "name", "role", "comment", "rating", "approved", "created_at"}
	feedbackOrdering = columnSet("id", "rating", "created_at")
)

type feedbackRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	Comment   string    `db:"comment"`
	Rating    int       `db:"rating"`
	Approved  bool      `db:"approved"`
	CreatedAt time.Time `db:"created_at"`
}

func (row feedbackRow) unboil() feedback.Feedback {
	return feedback.Feedback{
		ID:        row.ID,
		Name:      row.Name,
		Role:      row.Role,
		Comment:   row.Comment,
		Rating:    row.Rating,
		Approved:  row.Approved,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type feedbackRepository struct {
	executor
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{executor{db}}
}

func feedbackWhere(filter feedback.QueryFilter) []sq.Sqlizer {
	if filter.Approved == nil {
		return nil
	}
	return []sq.Sqlizer{sq.Eq{"approved": *filter.Approved}}
}

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	q := psql.Insert(feedbackTable).
		Columns(feedbackColumns[1:]...).
		Values(fb.Name, fb.Role, fb.Comment, fb.Rating, fb.Approved, fb.CreatedAt.UTC())
	id, err := repo.insert(ctx, q)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	fb.ID = id
	return fb, nil
}

func (repo *feedbackRepository) GetFeedback(ctx context.Context, id int) (feedback.Feedback, error) {
	var row feedbackRow
	q := psql.Select(feedbackColumns...).From(feedbackTable).Where(sq.Eq{"id": id})
	if err := repo.get(ctx, &row, q); err != nil {
		if isNoRows(err) {
			return feedback.Feedback{}, feedback.ErrNotFound
		}
		return feedback.Feedback{}, errors.Wrap(err, "selecting feedback")
	}
	return row.unboil(), nil
}

func (repo *feedbackRepository) QueryFeedback(ctx context.Context, filter feedback.QueryFilter, ordering ...core.DBOrdering) ([]feedback.Feedback, error) {
	q := psql.Select(feedbackColumns...).From(feedbackTable)
	for _, w := range feedbackWhere(filter) {
		q = q.Where(w)
	}
	q = orderBy(q, feedbackOrdering, ordering)

	var rows []feedbackRow
	if err := repo.selectRows(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting feedback")
	}
	fbs := make([]feedback.Feedback, 0, len(rows))
	for _, row := range rows {
		fbs = append(fbs, row.unboil())
	}
	return fbs, nil
}

func (repo *feedbackRepository) ApproveFeedback(ctx context.Context, id int) (feedback.Feedback, error) {
	res, err := repo.exec(ctx, psql.Update(feedbackTable).Set("approved", true).Where(sq.Eq{"id": id}))
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "approving feedback")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	return repo.GetFeedback(ctx, id)
}

func (repo *feedbackRepository) DeleteFeedback(ctx context.Context, id int) error {
	res, err := repo.exec(ctx, psql.Delete(feedbackTable).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting feedback")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return feedback.ErrNotFound
	}
	return nil
}

func (repo *feedbackRepository) CountFeedback(ctx context.Context, filter feedback.QueryFilter) (int, error) {
	return repo.count(ctx, feedbackTable, feedbackWhere(filter)...)
}

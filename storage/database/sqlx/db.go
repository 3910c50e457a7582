// Package sqlxrepos implements every domain Repository on PostgreSQL with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fmlibermann/website/core"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type executor struct {
	db *sqlx.DB
}

func (ex executor) get(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return ex.db.GetContext(ctx, dest, query, args...)
}

func (ex executor) selectRows(ctx context.Context, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return ex.db.SelectContext(ctx, dest, query, args...)
}

func (ex executor) exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return ex.db.ExecContext(ctx, query, args...)
}

// insert runs an INSERT ... RETURNING id.
func (ex executor) insert(ctx context.Context, q sq.InsertBuilder) (int, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int
	if err = ex.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (ex executor) count(ctx context.Context, table string, where ...sq.Sqlizer) (int, error) {
	q := psql.Select("COUNT(*)").From(table)
	for _, w := range where {
		q = q.Where(w)
	}
	var n int
	if err := ex.get(ctx, &n, q); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return n, nil
}

// search is a case-insensitive substring match of s on any of columns.
func search(s string, columns ...string) sq.Sqlizer {
	pattern := "%" + escapeLike(s) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return or
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// orderBy applies ordering on allowed columns only, then falls back to the primary key.
func orderBy(q sq.SelectBuilder, allowed map[string]bool, ordering []core.DBOrdering) sq.SelectBuilder {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	clauses = append(clauses, "id ASC")
	return q.OrderBy(clauses...)
}

func columnSet(cols ...string) map[string]bool {
	set := make(map[string]bool, len(cols))
	for _, col := range cols {
		set[col] = true
	}
	return set
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// Package sqlxrepos implements the repositories over Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core"
	"github.com/mygithubaccountn/EduPacee/core/academic"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// academicErr maps driver errors to the academic ones, or wraps err with msg.
func academicErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Cause(err) == sql.ErrNoRows:
		return academic.ErrNotFound
	case pqCode(err) == uniqueViolation:
		return academic.ErrAlreadyExists
	case pqCode(err) == foreignKeyViolation:
		return errors.Wrap(academic.ErrNotFound, msg)
	}
	return errors.Wrap(err, msg)
}

// where accumulates AND-ed conditions. Every "?" of a condition refers to its single argument.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

// ids filters on an id column: nil does not filter, an empty slice matches nothing.
func (w *where) ids(col string, ids []int64) {
	if ids != nil {
		w.add(col+" = ANY(?)", pq.Array(ids))
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func orderBy(ordering []core.DBOrdering, allowed ...string) string {
	ordering = core.FilterOrderings(ordering, allowed...)
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	clauses = append(clauses, "id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return academic.ErrNotFound
	}
	return nil
}

package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/mygithubaccountn/EduPacee/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// pathID parses the id path parameter; a malformed id matches nothing.
func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryID parses an optional id query parameter.
func queryID(ctx echo.Context, name string) (null.Int64, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return null.Int64{}, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return null.Int64{}, core.NewValidationError(nil, core.FieldError{Field: name, Error: "invalid id"})
	}
	return null.Int64From(id), nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be true or false"})
	}
	return &b, nil
}

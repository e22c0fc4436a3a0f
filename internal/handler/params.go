package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1_000_000
)

// listParams reads page, page_size, sort_by, sort_order and with_trashed.
func listParams(c echo.Context) (service.ListParams, error) {
	p := service.ListParams{Page: 1, PageSize: defaultPageSize, SortBy: c.QueryParam("sort_by")}
	fe := errs.FieldErrors{}

	if s := c.QueryParam("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPage {
			fe["page"] = "must be between 1 and " + strconv.Itoa(maxPage)
		}
		p.Page = n
	}
	if s := c.QueryParam("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPageSize {
			fe["page_size"] = "must be between 1 and " + strconv.Itoa(maxPageSize)
		}
		p.PageSize = n
	}
	if s := c.QueryParam("sort_order"); s != "" {
		dir, err := query.ParseDirection(s)
		if err != nil {
			fe["sort_order"] = "must be asc or desc"
		}
		p.SortOrder = dir
	}
	if s := c.QueryParam("with_trashed"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			fe["with_trashed"] = "must be a boolean"
		}
		p.WithTrashed = b
	}
	if len(fe) > 0 {
		return p, fe
	}
	return p, nil
}

// pathID reads a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, errs.FieldErrors{name: "must be a positive integer"}
	}
	return id, nil
}

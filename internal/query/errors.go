package query

import "errors"

// Configuration errors recorded by a Builder and returned from its terminal call.
var (
	ErrUnknownField     = errors.New("query: unknown field")
	ErrUnknownRelation  = errors.New("query: unknown relation")
	ErrInvalidDirection = errors.New("query: invalid sort direction")
	ErrInvalidPage      = errors.New("query: page and page size must be >= 1")
)

package usecase

import "github.com/cockroachdb/errors"

// ErrInvalidInput marks caller mistakes, e.g. an unknown staging category or
// a record whose payload type does not belong to it.
var ErrInvalidInput = errors.New("invalid input")

package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func stringSliceToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// int64Array adapts a slice for ANY($n) comparisons.
func int64Array(values []int64) driver.Valuer {
	return pq.Array(values)
}

func int64SliceToAny(values []int64) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

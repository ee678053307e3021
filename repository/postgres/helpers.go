package postgres

import (
	"time"

	"github.com/splitlist/taskboard/domain"
)

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// dueArgs splits a due into its two column values.
func dueArgs(due *domain.Due) (interface{}, bool) {
	if due == nil {
		return nil, false
	}
	return due.At, due.DateOnly
}

// scanDue rebuilds a due from its two column values.
func scanDue(at *time.Time, dateOnly bool) *domain.Due {
	if at == nil {
		return nil
	}
	return &domain.Due{At: *at, DateOnly: dateOnly}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}

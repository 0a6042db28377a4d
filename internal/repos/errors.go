package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"jamde/internal/domain"
)

// notFound maps sql.ErrNoRows to domain.ErrNotFound and passes everything else through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// isUnique reports a unique-constraint violation from either driver.
func isUnique(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func duplicate(err error, format string, args ...any) error {
	if isUnique(err) {
		return domain.ErrDuplicate.With(format, args...)
	}
	return err
}

// nullable stores the empty string as SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

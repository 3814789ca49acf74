package gamedb

import (
	"errors"

	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected is returned when a conditional update matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrUniqueViolation is returned when an insert races a concurrent writer.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique violation.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == uniqueViolationCode
	}
	return false
}

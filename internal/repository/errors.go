package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres constraint names the services key error mapping on.
const (
	ConstraintOpenSlot      = "ux_cash_sessions_open_operator_terminal"
	ConstraintSessionNumber = "ux_cash_sessions_session_number"
)

// IsUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint (any constraint when name is empty).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsSerializationFailure reports whether err is a transient transaction
// conflict (serialization failure or deadlock) worth retrying.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

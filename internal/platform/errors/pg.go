package errors

// Postgres helpers for mapping pgx errors onto ErrorCode

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation    = "23505"
	pgErrNotNullViolation   = "23502"
	pgErrCheckViolation     = "23514"
	pgErrReadOnlySQLTx      = "25006"
	pgErrCannotConnectNow   = "57P03"
	pgErrUndefinedTable     = "42P01"
	pgErrStringTruncation   = "22001"
	pgErrInvalidTextRepr    = "22P02"
	pgErrSerializationFail  = "40001"
	pgErrDeadlockDetected   = "40P01"
	pgErrLockNotAvailable   = "55P03"
	pgErrForeignKeyViolated = "23503"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation
}

// DBErrorCode maps a Postgres error to an ErrorCode; !ok means err was not a PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeConflict, true
	case pgErrNotNullViolation, pgErrCheckViolation, pgErrStringTruncation,
		pgErrInvalidTextRepr, pgErrForeignKeyViolated:
		return ErrorCodeValidation, true
	case pgErrReadOnlySQLTx, pgErrCannotConnectNow:
		return ErrorCodeUnavailable, true
	case pgErrSerializationFail, pgErrDeadlockDetected, pgErrLockNotAvailable, pgErrUndefinedTable:
		return ErrorCodeDB, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

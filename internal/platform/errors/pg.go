package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the engine classifies
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgStringTruncation    = "22001"
	pgBadTextValue        = "22P02"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgLockNotAvailable    = "55P03"
	pgReadOnlyTx          = "25006"
	pgCannotConnectNow    = "57P03"
	pgQueryCanceled       = "57014"
)

func pgCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

func postgresCode(state string) ErrorCode {
	switch state {
	case pgUniqueViolation:
		return ErrorCodeDuplicateKey
	case pgForeignKeyViolation, pgStringTruncation, pgBadTextValue:
		return ErrorCodeInvalidArgument
	case pgNotNullViolation, pgCheckViolation:
		return ErrorCodeValidation
	case pgReadOnlyTx, pgCannotConnectNow, pgQueryCanceled:
		return ErrorCodeUnavailable
	}
	return ErrorCodeDB
}

// FromPostgres codes a raw postgres error by its SQLSTATE; anything else is
// a plain db error
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	if state, ok := pgCode(err); ok {
		code = postgresCode(state)
	}
	e := Wrap(err, code, msg)
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) && strings.TrimSpace(pgErr.ColumnName) != "" {
		e = WithField(e, pgErr.ColumnName)
	}
	return e
}

// IsRetryable reports whether err is contention a fresh transaction could
// get past: serialization failures, deadlocks and lock timeouts. Local
// cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if state, ok := pgCode(err); ok {
		return state == pgSerialization || state == pgDeadlock || state == pgLockNotAvailable
	}
	s := strings.ToLower(Root(err).Error())
	for _, frag := range []string{
		"commit unexpectedly resulted in rollback",
		"deadlock detected",
		"could not serialize access",
		"could not obtain lock on row",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

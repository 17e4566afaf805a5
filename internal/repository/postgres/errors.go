package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// PostgreSQL error codes the repositories translate.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
)

// mapError translates driver errors into application errors and prefixes
// op. Callers handle pgx.ErrNoRows themselves since its meaning depends on
// the statement.
func mapError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w", op, apperrors.Conflict("concurrent update detected, retry the request"))
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, apperrors.Conflict("record already exists"))
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, apperrors.InvalidInput("referenced record does not exist"))
		case codeCheckViolation:
			return fmt.Errorf("%s: %w", op, apperrors.InvalidInput("value out of range"))
		}
	}
	return errorf(op, err)
}

func errorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"guardhouse/pkg/platform/sentinel"
)

// SQLSTATE codes the stores care about.
const (
	uniqueViolation      = "23505"
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
	lockNotAvailable     = "55P03"
	queryCanceled        = "57014"
)

// Constraints whose violation means an owner-scoped sequence was taken.
var sequenceConstraints = map[string]struct{}{
	"guards_supervisor_sequence_key":   {},
	"notifications_scope_sequence_key": {},
}

// Classify wraps err with the sentinel that describes it, keeping the original
// error in the chain. Errors it does not recognize are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		if _, ok := sequenceConstraints[pgErr.ConstraintName]; ok {
			return fmt.Errorf("%w: %s: %w", sentinel.ErrAllocationConflict, pgErr.ConstraintName, err)
		}
		return fmt.Errorf("%w: %s: %w", sentinel.ErrAlreadyUsed, pgErr.ConstraintName, err)
	case foreignKeyViolation:
		if isReferencedSide(pgErr) {
			return fmt.Errorf("%w: %s: %w", sentinel.ErrConflict, pgErr.ConstraintName, err)
		}
		return fmt.Errorf("%w: %s: %w", sentinel.ErrInvalidReference, pgErr.ConstraintName, err)
	case serializationFailure, deadlockDetected, lockNotAvailable, queryCanceled:
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}

// isReferencedSide reports whether the violation came from deleting or updating
// a parent row that is still referenced, rather than inserting a dangling child.
func isReferencedSide(pgErr *pgconn.PgError) bool {
	return strings.Contains(pgErr.Message, "update or delete on table")
}

// ConstraintName returns the violated constraint, if err carries one.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

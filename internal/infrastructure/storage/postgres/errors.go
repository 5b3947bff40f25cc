package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"salesdocs/internal/core/apperror"
	"salesdocs/internal/core/entity"
)

// uniqueViolation is the SQLSTATE of unique_violation.
const uniqueViolation = "23505"

// MapWriteError turns a unique violation into an apperror duplicate naming
// the violated column. Unique constraints are named uq_<table>_<column>.
func MapWriteError(table string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	return apperror.NewDuplicate(table, constraintColumn(pgErr.ConstraintName), pgErr.Detail).WithCause(err)
}

func constraintColumn(constraint string) string {
	switch {
	case strings.HasSuffix(constraint, "_"+entity.ColumnIdempotencyKey):
		return entity.ColumnIdempotencyKey
	case strings.HasSuffix(constraint, "_"+entity.ColumnNumber):
		return entity.ColumnNumber
	}
	return constraint
}

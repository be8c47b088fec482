package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// postgres or sqlite. When constraintName is set the violation must mention it.
func IsUniqueViolation(err error, constraintName string) bool {
	return matchesViolation(err, pgUniqueViolation, constraintName, "duplicate key value", "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key violation on
// postgres or sqlite.
func IsForeignKeyViolation(err error) bool {
	return matchesViolation(err, pgForeignKeyViolation, "", "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

func matchesViolation(err error, pgCode, constraintName string, markers ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgCode && (constraintName == "" || pgxErr.ConstraintName == constraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCode && (constraintName == "" || pqErr.Constraint == constraintName)
	}

	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return constraintName == "" || strings.Contains(msg, constraintName)
		}
	}
	return false
}

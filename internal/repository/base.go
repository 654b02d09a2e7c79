// Package repository contains the data access layer backed by GORM.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE class for duplicate keys.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation from
// either supported driver. Idempotent write paths (like, bookmark, follow)
// treat it as "already present" rather than an error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

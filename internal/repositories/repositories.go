package repositories

import (
	"database/sql"
	"strings"
)

// isUniqueViolation reports whether an error is a sqlite UNIQUE constraint
// failure. The driver does not expose a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// nullable converts an empty string to NULL so partial platform data does
// not collide with the unique indexes on platform id columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

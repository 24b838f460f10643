// Package repository holds the database/sql data access layer. The sentinel
// values below let higher layers distinguish failure scenarios without
// inspecting driver errors: ErrNotFound for missing rows, ErrDuplicate for
// unique key violations and ErrConflict for rows still referenced elsewhere
// (e.g. deleting a cargo type that tokens point at).
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist. Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key.
// Handlers translate it into an HTTP 409 response.
var ErrDuplicate = errors.New("already exists")

// ErrConflict is returned when a delete or update cannot be performed
// because other rows still reference the target. Handlers translate it into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers the repositories care about.
const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
)

// mapErr converts driver-level errors into the package sentinels. Errors
// that have no sentinel are returned unchanged.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	}
	switch mysqlCode(err) {
	case mysqlDupEntry:
		return ErrDuplicate
	case mysqlRowIsReferenced:
		return ErrConflict
	}
	return err
}

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

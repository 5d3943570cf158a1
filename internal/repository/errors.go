// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let handlers map failures onto HTTP
// statuses with errors.Is.  Ownership mismatches are reported as ErrNotFound
// so callers cannot probe for other users' records.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a record does not exist or belongs to
// someone else.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
// Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists and ErrUsernameExists narrow ErrConflict for user creation.
var (
	ErrEmailExists    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameExists = fmt.Errorf("%w: username already taken", ErrConflict)
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique-key violation and, if so,
// the message of the offending key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return strings.ToLower(me.Message), true
	}
	return "", false
}

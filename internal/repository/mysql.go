package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/finbridge/backoffice/internal/model"
)

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique-constraint violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// storeErr maps low-level failures onto the shared taxonomy. sql.ErrNoRows
// becomes ErrNotFound; duplicate keys become ErrConflict; anything else is
// passed through for the handler to treat as internal.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.ErrNotFound
	case isDuplicate(err):
		return model.ErrConflict
	default:
		return err
	}
}

// nullTime converts a nullable DATETIME scan target to *time.Time.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullStr converts a nullable column scan target to *string.
func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

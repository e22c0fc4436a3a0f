package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/iliyamo/quiz-api/internal/errs"
)

// isDuplicate reports a unique/primary key violation on either dialect.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// translate maps driver errors onto errs sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return fmt.Errorf("%w: %w", errs.ErrConflict, err)
	}
	return err
}

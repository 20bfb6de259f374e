// Package sqlxdb implements the repositories over PostgreSQL.
package sqlxdb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// uniqueViolation is the postgres error code of unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// trapNoRowsErr maps "no rows" errors to `errNotFound`.
func trapNoRowsErr(err, errNotFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns `errNotFound` if `res` affected no row.
func checkAffected(res sql.Result, errNotFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

// like wraps `s` for an ILIKE match.
func like(s string) string {
	return "%" + s + "%"
}

func intArray(ids []int) pq.Int64Array {
	arr := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	return arr
}

// withTx runs `fn` in a transaction, committed only if `fn` succeeds.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func stringArray(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ss)
}

func fromStringArray(arr pq.StringArray) []string {
	if arr == nil {
		return []string{}
	}
	return []string(arr)
}

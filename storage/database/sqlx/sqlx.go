// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

// postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// inTx runs fn in a transaction, committed only when fn succeeds.
func inTx(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// trapNoRowsErr maps psql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func pqErrorCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// setOrders writes every order of orders in a single statement; scope restricts the rows
// (e.g. "category_id = $3") and scopeArgs are its arguments. Nothing is written unless
// every id matched.
func setOrders(ctx context.Context, db core.DB, table, scope string, orders ordering.Assignment, scopeArgs ...interface{}) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	values := make([]int64, 0, len(orders))
	for id, order := range orders {
		if !isUUID(id) {
			return &ordering.InvalidMoveError{MovedID: id, Reason: "not a member of the group"}
		}
		ids = append(ids, id)
		values = append(values, int64(order))
	}

	q := `UPDATE ` + table + ` AS t SET sort_order = v.sort_order
		FROM UNNEST($1::uuid[], $2::integer[]) AS v(id, sort_order)
		WHERE t.id = v.id`
	if scope != "" {
		q += " AND t." + scope
	}
	args := append([]interface{}{pq.StringArray(ids), pq.Int64Array(values)}, scopeArgs...)

	return inTx(ctx, db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return errors.Wrapf(err, "updating %s orders", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "counting affected rows")
		}
		if int(n) != len(orders) {
			return &ordering.InvalidMoveError{Reason: "not a member of the group"}
		}
		return nil
	})
}

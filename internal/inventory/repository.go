package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/validate"
	"asset-inventory-api/pkg/importer"
)

// WriteResult is the acknowledgment of a mutation, not the affected row.
type WriteResult struct {
	AffectedRows int64 `json:"affectedRows"`
	InsertID     int64 `json:"insertId"`
}

// Repository runs the fixed CRUD and dashboard queries of one resource.
// T is the row model; its `db` tags must match the schema's columns.
type Repository[T any] struct {
	db     *database.DB
	schema Schema
}

// NewRepository binds a schema to the shared pool.
func NewRepository[T any](db *database.DB, schema Schema) *Repository[T] {
	return &Repository[T]{db: db, schema: schema}
}

// Schema returns the resource description.
func (r *Repository[T]) Schema() Schema { return r.schema }

func (r *Repository[T]) table() string { return r.db.Dialect.Quote(r.schema.Table) }

// Decode validates a JSON body and decodes it into a row.
func (r *Repository[T]) Decode(body []byte) (*T, error) {
	if err := validate.Fields(body, r.schema.Required()); err != nil {
		return nil, err
	}
	row := new(T)
	if err := json.Unmarshal(body, row); err != nil {
		return nil, validate.DecodeError(err)
	}
	return row, nil
}

// ListAll returns every row. An empty table yields an empty, non-nil slice.
func (r *Repository[T]) ListAll(ctx context.Context, sort string) ([]T, error) {
	q := "SELECT " + r.schema.selectList(r.db.Dialect) + " FROM " + r.table() +
		r.schema.OrderBy(r.db.Dialect, sort)
	rows := []T{}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrapf(err, "list %s", r.schema.Table)
	}
	return rows, nil
}

// ReadByID returns zero or one row. A missing id is not an error.
func (r *Repository[T]) ReadByID(ctx context.Context, id int64) ([]T, error) {
	q := "SELECT " + r.schema.selectList(r.db.Dialect) + " FROM " + r.table() +
		" WHERE " + r.db.Dialect.Quote("id") + " = " + r.db.Dialect.Placeholder(1)
	rows := []T{}
	if err := r.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, errors.Wrapf(err, "read %s %d", r.schema.Table, id)
	}
	return rows, nil
}

// Create inserts one row.
func (r *Repository[T]) Create(ctx context.Context, row *T) (WriteResult, error) {
	res, err := r.insert(ctx, r.db, row)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "insert %s", r.schema.Table)
	}
	return res, nil
}

func (r *Repository[T]) insert(ctx context.Context, ext sqlx.ExtContext, row *T) (WriteResult, error) {
	d := r.db.Dialect
	cols := make([]string, len(r.schema.Columns))
	names := make([]string, len(r.schema.Columns))
	for i, c := range r.schema.Columns {
		cols[i] = d.Quote(c.Name)
		names[i] = ":" + c.Name
	}
	named := "INSERT INTO " + r.table() + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(names, ", ") + ")"

	q, args, err := ext.BindNamed(named, row)
	if err != nil {
		return WriteResult{}, err
	}

	if d.Returning {
		var id int64
		if err := ext.QueryRowxContext(ctx, q+" RETURNING "+d.Quote("id"), args...).Scan(&id); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{AffectedRows: 1, InsertID: id}, nil
	}

	res, err := ext.ExecContext(ctx, q, args...)
	if err != nil {
		return WriteResult{}, err
	}
	return writeResult(res, true)
}

// Update overwrites every column of the row with the given id.
func (r *Repository[T]) Update(ctx context.Context, id int64, row *T) (WriteResult, error) {
	d := r.db.Dialect
	sets := make([]string, len(r.schema.Columns))
	for i, c := range r.schema.Columns {
		sets[i] = d.Quote(c.Name) + " = :" + c.Name
	}
	named := "UPDATE " + r.table() + " SET " + strings.Join(sets, ", ")

	q, args, err := r.db.BindNamed(named, row)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "bind update %s", r.schema.Table)
	}
	q += " WHERE " + d.Quote("id") + " = " + d.Placeholder(len(args)+1)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "update %s %d", r.schema.Table, id)
	}
	return writeResult(res, false)
}

// DeleteByID hard deletes the row with the given id.
func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) (WriteResult, error) {
	q := "DELETE FROM " + r.table() + " WHERE " + r.db.Dialect.Quote("id") + " = " + r.db.Dialect.Placeholder(1)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "delete %s %d", r.schema.Table, id)
	}
	return writeResult(res, false)
}

// Count returns the number of rows.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	q := "SELECT COUNT(" + r.db.Dialect.Quote("id") + ") FROM " + r.table()
	if err := r.db.GetContext(ctx, &n, q); err != nil {
		return 0, errors.Wrapf(err, "count %s", r.schema.Table)
	}
	return n, nil
}

// SumPrice returns the sum of the price column, or nil for an empty table.
func (r *Repository[T]) SumPrice(ctx context.Context) (*float64, error) {
	var sum sql.NullFloat64
	q := "SELECT SUM(" + r.db.Dialect.Quote("price") + ") FROM " + r.table()
	if err := r.db.GetContext(ctx, &sum, q); err != nil {
		return nil, errors.Wrapf(err, "sum price %s", r.schema.Table)
	}
	if !sum.Valid {
		return nil, nil
	}
	return &sum.Float64, nil
}

// Fields describes the importable columns.
func (r *Repository[T]) Fields() []importer.Field { return r.schema.Columns }

// Batch runs fn inside one transaction. Rows passed to insert are validated
// like POST bodies. The transaction commits only when commit is set and fn
// succeeds.
func (r *Repository[T]) Batch(ctx context.Context, commit bool, fn func(insert importer.InsertFunc) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin import")
	}
	defer tx.Rollback()

	insert := func(ctx context.Context, body []byte) error {
		row, err := r.Decode(body)
		if err != nil {
			return err
		}
		if _, err := r.insert(ctx, tx, row); err != nil {
			return errors.Wrapf(err, "insert %s", r.schema.Table)
		}
		return nil
	}

	if err := fn(insert); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	return errors.Wrap(tx.Commit(), "commit import")
}

func writeResult(res sql.Result, inserted bool) (WriteResult, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return WriteResult{}, err
	}
	out := WriteResult{AffectedRows: affected}
	if inserted {
		if out.InsertID, err = res.LastInsertId(); err != nil {
			return WriteResult{}, err
		}
	}
	return out, nil
}

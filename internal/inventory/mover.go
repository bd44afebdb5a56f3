package inventory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"asset-inventory-api/internal/database"
)

// ErrPartialMove means the asset was copied to hw_amortized but could not be
// removed from hw_asset. The row now exists in both tables.
var ErrPartialMove = errors.New("asset copied to hw_amortized but not removed from hw_asset")

// Mover retires hardware assets into the amortized table.
type Mover struct {
	db     *database.DB
	atomic bool
}

// NewMover creates a mover. With atomic set both steps share one transaction.
func NewMover(db *database.DB, atomic bool) *Mover {
	return &Mover{db: db, atomic: atomic}
}

// Atomic reports whether moves run in a transaction.
func (m *Mover) Atomic() bool { return m.atomic }

// MoveToAmortized copies hw_asset row id into hw_amortized stamped with the
// current server time, then deletes the source row. The result is the
// acknowledgment of the copy.
func (m *Mover) MoveToAmortized(ctx context.Context, id int64) (WriteResult, error) {
	if m.atomic {
		return m.moveTx(ctx, id)
	}

	res, err := m.copy(ctx, m.db, id)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "copy hw_asset %d", id)
	}
	if err := m.remove(ctx, m.db, id); err != nil {
		return res, errors.Wrapf(ErrPartialMove, "delete hw_asset %d: %v", id, err)
	}
	return res, nil
}

func (m *Mover) moveTx(ctx context.Context, id int64) (WriteResult, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return WriteResult{}, errors.Wrap(err, "begin move")
	}
	defer tx.Rollback()

	res, err := m.copy(ctx, tx, id)
	if err != nil {
		return WriteResult{}, errors.Wrapf(err, "copy hw_asset %d", id)
	}
	if err := m.remove(ctx, tx, id); err != nil {
		return WriteResult{}, errors.Wrapf(err, "delete hw_asset %d", id)
	}
	if err := tx.Commit(); err != nil {
		return WriteResult{}, errors.Wrap(err, "commit move")
	}
	return res, nil
}

func (m *Mover) copy(ctx context.Context, ext sqlx.ExtContext, id int64) (WriteResult, error) {
	d := m.db.Dialect
	cols := make([]string, len(hardwareColumns))
	for i, c := range hardwareColumns {
		cols[i] = d.Quote(c.Name)
	}
	list := strings.Join(cols, ", ")
	q := "INSERT INTO " + d.Quote(HardwareAmortized.Table) + " (" + list + ", " + d.Quote("amortizeddate") + ")" +
		" SELECT " + list + ", CURRENT_TIMESTAMP FROM " + d.Quote(HardwareAssets.Table) +
		" WHERE " + d.Quote("id") + " = " + d.Placeholder(1)

	if d.Returning {
		var newID int64
		err := ext.QueryRowxContext(ctx, q+" RETURNING "+d.Quote("id"), id).Scan(&newID)
		if errors.Is(err, sql.ErrNoRows) {
			return WriteResult{}, nil
		}
		if err != nil {
			return WriteResult{}, err
		}
		return WriteResult{AffectedRows: 1, InsertID: newID}, nil
	}

	res, err := ext.ExecContext(ctx, q, id)
	if err != nil {
		return WriteResult{}, err
	}
	out, err := writeResult(res, true)
	if err == nil && out.AffectedRows == 0 {
		out.InsertID = 0
	}
	return out, err
}

func (m *Mover) remove(ctx context.Context, ext sqlx.ExtContext, id int64) error {
	d := m.db.Dialect
	q := "DELETE FROM " + d.Quote(HardwareAssets.Table) + " WHERE " + d.Quote("id") + " = " + d.Placeholder(1)
	_, err := ext.ExecContext(ctx, q, id)
	return err
}

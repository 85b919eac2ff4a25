// AngelaMos | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	MarkCaptured(ctx context.Context, id, captureID string, amount decimal.Decimal) error
	MarkFailed(ctx context.Context, id, reason string) error
	MarkCancelled(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[OrderStatus]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, purpose, component_id, amount, currency, status,
	capture_id, failure_reason, created_at, updated_at`

func (r *repository) Create(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = OrderCreated
	}

	query := r.db.Rebind(`
		INSERT INTO payment_orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		o.ID,
		o.UserID,
		o.Purpose,
		o.ComponentID,
		o.Amount,
		o.Currency,
		o.Status,
		o.CaptureID,
		o.FailureReason,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create order: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := r.db.Rebind(`SELECT ` + orderColumns + ` FROM payment_orders WHERE id = ?`)

	var o Order
	err := r.db.GetContext(ctx, &o, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	o.Amount = core.RoundMoney(o.Amount)
	return &o, nil
}

func (r *repository) MarkCaptured(
	ctx context.Context,
	id, captureID string,
	amount decimal.Decimal,
) error {
	query := r.db.Rebind(`
		UPDATE payment_orders
		SET status = ?, capture_id = ?, amount = ?, updated_at = ?
		WHERE id = ? AND status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		OrderCaptured, captureID, amount, time.Now().UTC(), id, OrderCreated,
	)
	return r.checkTransition(ctx, "mark order captured", id, res, err)
}

func (r *repository) MarkFailed(ctx context.Context, id, reason string) error {
	query := r.db.Rebind(`
		UPDATE payment_orders
		SET status = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		OrderFailed, reason, time.Now().UTC(), id, OrderCreated,
	)
	return r.checkTransition(ctx, "mark order failed", id, res, err)
}

func (r *repository) MarkCancelled(ctx context.Context, id string) error {
	query := r.db.Rebind(`
		UPDATE payment_orders
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		OrderCancelled, time.Now().UTC(), id, OrderCreated,
	)
	return r.checkTransition(ctx, "mark order cancelled", id, res, err)
}

// checkTransition turns a zero-row update into ErrNotFound or ErrConflict.
func (r *repository) checkTransition(
	ctx context.Context,
	op, id string,
	res sql.Result,
	err error,
) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: order is no longer pending: %w", op, core.ErrConflict)
}

func (r *repository) CountByStatus(ctx context.Context) (map[OrderStatus]int, error) {
	var rows []struct {
		Status OrderStatus `db:"status"`
		Count  int         `db:"count"`
	}

	query := `SELECT status, COUNT(*) AS count FROM payment_orders GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}

	counts := map[OrderStatus]int{
		OrderCreated:   0,
		OrderCaptured:  0,
		OrderFailed:    0,
		OrderCancelled: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

// AngelaMos | 2026
// settle.go

package payment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/ledger"
)

// Settler records a captured payment. The order status flip and the ledger
// write commit together or not at all.
type Settler interface {
	Settle(ctx context.Context, order *Order, captureID string, amount decimal.Decimal) error
}

type txSettler struct {
	db *sqlx.DB
}

func NewSettler(db *sqlx.DB) Settler {
	return &txSettler{db: db}
}

func (s *txSettler) Settle(
	ctx context.Context,
	order *Order,
	captureID string,
	amount decimal.Decimal,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).MarkCaptured(ctx, order.ID, captureID, amount); err != nil {
			return err
		}

		donations := ledger.NewRepository(tx)

		switch order.Purpose {
		case PurposePremium:
			if _, err := donations.AccumulatePremium(ctx, order.UserID, amount); err != nil {
				return err
			}
		case PurposeComponent:
			if _, err := donations.Accumulate(ctx, order.UserID, order.ComponentKey(), amount); err != nil {
				return err
			}
		default:
			return fmt.Errorf("settle order %s: unknown purpose %q", order.ID, order.Purpose)
		}

		return nil
	})
}

// AngelaMos | 2026
// entity.go

package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purpose string

const (
	PurposeComponent Purpose = "component"
	PurposePremium   Purpose = "premium"
)

type OrderStatus string

// CREATED is the only non-terminal status. Every transition out of it is
// a compare-and-swap on the stored status.
const (
	OrderCreated   OrderStatus = "CREATED"
	OrderCaptured  OrderStatus = "CAPTURED"
	OrderFailed    OrderStatus = "FAILED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order is keyed by the provider's order id, which is also the token the
// provider appends to the return and cancel URLs.
type Order struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Purpose       Purpose         `db:"purpose"`
	ComponentID   *string         `db:"component_id"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        OrderStatus     `db:"status"`
	CaptureID     *string         `db:"capture_id"`
	FailureReason *string         `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (o *Order) IsPremiumUpgrade() bool {
	return o.Purpose == PurposePremium
}

func (o *Order) ComponentKey() string {
	if o.ComponentID == nil {
		return ""
	}
	return *o.ComponentID
}

// AngelaMos | 2026
// entity.go

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is the cumulative amount one user gave toward one component.
// There is at most one row per (UserID, ComponentID).
type Donation struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	ComponentID string          `db:"component_id"`
	Amount      decimal.Decimal `db:"amount"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// AccountState records premium-upgrade payments separately from the
// component catalog.
type AccountState struct {
	UserID           string          `db:"user_id"`
	PremiumPurchased bool            `db:"premium_purchased"`
	PremiumAmount    decimal.Decimal `db:"premium_amount"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type Stats struct {
	Donors          int             `db:"donors"`
	TotalDonated    decimal.Decimal `db:"total_donated"`
	PremiumBuyers   int             `db:"premium_buyers"`
	PremiumAccounts int             `db:"premium_accounts"`
}

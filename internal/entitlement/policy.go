// AngelaMos | 2026
// policy.go

package entitlement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/config"
)

type Access string

const (
	AccessPremium Access = "premium"
	AccessFree    Access = "free"
	AccessDonated Access = "donated"
	AccessDenied  Access = "denied"
)

func (a Access) Granted() bool {
	return a != AccessDenied
}

// Policy holds the constants every access decision is derived from.
type Policy struct {
	FreeAccessLimit     int
	PremiumThreshold    decimal.Decimal
	Currency            string
	ReservedComponentID string
}

func NewPolicy(cfg config.PolicyConfig) (Policy, error) {
	threshold, err := cfg.Threshold()
	if err != nil {
		return Policy{}, err
	}

	if cfg.FreeAccessLimit < 0 {
		return Policy{}, fmt.Errorf("free access limit must not be negative")
	}

	return Policy{
		FreeAccessLimit:     cfg.FreeAccessLimit,
		PremiumThreshold:    threshold,
		Currency:            cfg.Currency,
		ReservedComponentID: cfg.ReservedComponentID,
	}, nil
}

func (p Policy) IsPremiumTotal(total decimal.Decimal) bool {
	return total.GreaterThanOrEqual(p.PremiumThreshold)
}

func (p Policy) RemainingForPremium(total decimal.Decimal) decimal.Decimal {
	remaining := p.PremiumThreshold.Sub(total)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (p Policy) IsReserved(componentID string) bool {
	return componentID == p.ReservedComponentID
}

type Pricing struct {
	PremiumPrice    string   `json:"premium_price"`
	Currency        string   `json:"currency"`
	FreeAccessLimit int      `json:"free_access_limit"`
	Benefits        []string `json:"benefits"`
}

func (p Policy) Pricing() Pricing {
	return Pricing{
		PremiumPrice:    p.PremiumThreshold.StringFixed(2),
		Currency:        p.Currency,
		FreeAccessLimit: p.FreeAccessLimit,
		Benefits: []string{
			"Full source code for every component in the catalog",
			"Access to components published after the upgrade",
			"Donations to individual components count toward premium",
			fmt.Sprintf(
				"The first %d components by name stay free for all members",
				p.FreeAccessLimit,
			),
		},
	}
}

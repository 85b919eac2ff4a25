// AngelaMos | 2026
// dto.go

package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/entitlement"
	"github.com/carterperez-dev/component-store/internal/paypal"
)

// CreateOrderRequest accepts amount as a JSON number or string.
type CreateOrderRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	ComponentID      string          `json:"component_id"       validate:"omitempty,max=100"`
	IsPremiumUpgrade bool            `json:"is_premium_upgrade"`
}

type CreateOrderResponse struct {
	OrderID    string        `json:"order_id"`
	Status     OrderStatus   `json:"status"`
	Purpose    Purpose       `json:"purpose"`
	Amount     string        `json:"amount"`
	Currency   string        `json:"currency"`
	ApproveURL string        `json:"approve_url"`
	Links      []paypal.Link `json:"links"`
}

type OrderResponse struct {
	OrderID        string        `json:"order_id"`
	Status         OrderStatus   `json:"status"`
	Purpose        Purpose       `json:"purpose"`
	ComponentID    *string       `json:"component_id,omitempty"`
	Amount         string        `json:"amount"`
	Currency       string        `json:"currency"`
	CaptureID      *string       `json:"capture_id,omitempty"`
	FailureReason  *string       `json:"failure_reason,omitempty"`
	ProviderStatus paypal.Status `json:"provider_status,omitempty"`
	Links          []paypal.Link `json:"links,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type PricingInfo struct {
	entitlement.Pricing
	MinAmount string `json:"min_amount"`
	MaxAmount string `json:"max_amount"`
}

func ToOrderResponse(o *Order) OrderResponse {
	return OrderResponse{
		OrderID:       o.ID,
		Status:        o.Status,
		Purpose:       o.Purpose,
		ComponentID:   o.ComponentID,
		Amount:        o.Amount.StringFixed(2),
		Currency:      o.Currency,
		CaptureID:     o.CaptureID,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

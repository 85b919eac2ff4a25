// AngelaMos | 2026
// types.go

package paypal

import (
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated             Status = "CREATED"
	StatusSaved               Status = "SAVED"
	StatusApproved            Status = "APPROVED"
	StatusVoided              Status = "VOIDED"
	StatusCompleted           Status = "COMPLETED"
	StatusPayerActionRequired Status = "PAYER_ACTION_REQUIRED"
)

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

func NewMoney(currency string, amount decimal.Decimal) Money {
	return Money{CurrencyCode: currency, Value: amount.StringFixed(2)}
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount,omitempty"`
}

type Payments struct {
	Captures []Capture `json:"captures,omitempty"`
}

type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Amount      *Money    `json:"amount,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

type Order struct {
	ID            string         `json:"id"`
	Status        Status         `json:"status"`
	Links         []Link         `json:"links,omitempty"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
}

func (o *Order) Link(rel string) string {
	for _, l := range o.Links {
		if l.Rel == rel {
			return l.Href
		}
	}
	return ""
}

// ApproveURL is where the payer is sent to approve the order. Newer API
// versions name the link payer-action.
func (o *Order) ApproveURL() string {
	if href := o.Link("approve"); href != "" {
		return href
	}
	return o.Link("payer-action")
}

func (o *Order) firstCapture() *Capture {
	for i := range o.PurchaseUnits {
		p := o.PurchaseUnits[i].Payments
		if p != nil && len(p.Captures) > 0 {
			return &p.Captures[0]
		}
	}
	return nil
}

func (o *Order) CaptureID() string {
	if c := o.firstCapture(); c != nil {
		return c.ID
	}
	return ""
}

// CapturedCurrency is the currency code of the first capture, or "" when
// the response carries no amount.
func (o *Order) CapturedCurrency() string {
	if c := o.firstCapture(); c != nil && c.Amount != nil {
		return c.Amount.CurrencyCode
	}
	return ""
}

// CapturedAmount reports the amount the provider says it captured, when
// the response carries one.
func (o *Order) CapturedAmount() (decimal.Decimal, bool) {
	c := o.firstCapture()
	if c == nil || c.Amount == nil {
		return decimal.Zero, false
	}

	v, err := decimal.NewFromString(c.Amount.Value)
	if err != nil {
		return decimal.Zero, false
	}

	return v, true
}

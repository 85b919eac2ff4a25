// AngelaMos | 2026
// dto.go

package catalog

import (
	"time"

	"github.com/carterperez-dev/component-store/internal/entitlement"
)

type CreateComponentRequest struct {
	ID        string  `json:"id"         validate:"required,min=1,max=100,excludesall=/?#%"`
	Name      string  `json:"name"       validate:"required,min=1,max=200"`
	Type      string  `json:"type"       validate:"required,max=50"`
	Code      string  `json:"code"       validate:"required"`
	ExtraCode *string `json:"extra_code" validate:"omitempty"`
}

// ComponentResponse omits code and extra_code when the caller has no
// access. Locked mirrors that so clients need not inspect the payload.
type ComponentResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      string             `json:"type"`
	Code      *string            `json:"code,omitempty"`
	ExtraCode *string            `json:"extra_code,omitempty"`
	Access    entitlement.Access `json:"access"`
	Locked    bool               `json:"locked"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ComponentSummary is the non-sensitive part of a component.
type ComponentSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// AccessDeniedDetails is attached to a 403 on single-component fetch.
type AccessDeniedDetails struct {
	Component ComponentSummary    `json:"component"`
	Access    entitlement.Access  `json:"access"`
	Pricing   entitlement.Pricing `json:"pricing"`
}

type ListParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Type     string `json:"type"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

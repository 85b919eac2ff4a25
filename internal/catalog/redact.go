// AngelaMos | 2026
// redact.go

package catalog

import (
	"github.com/carterperez-dev/component-store/internal/entitlement"
)

// Redact shapes a component for a caller with the given access. Denied
// callers never receive code or extra_code.
func Redact(c *Component, access entitlement.Access) ComponentResponse {
	resp := ComponentResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Access:    access,
		Locked:    !access.Granted(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if access.Granted() {
		code := c.Code
		resp.Code = &code
		if c.ExtraCode != nil {
			extra := *c.ExtraCode
			resp.ExtraCode = &extra
		}
	}

	return resp
}

func RedactAll(
	components []Component,
	ent *entitlement.Entitlement,
) []ComponentResponse {
	out := make([]ComponentResponse, 0, len(components))
	for i := range components {
		out = append(out, Redact(&components[i], ent.Access(components[i].ID)))
	}
	return out
}

func summarize(c *Component) ComponentSummary {
	return ComponentSummary{ID: c.ID, Name: c.Name, Type: c.Type}
}

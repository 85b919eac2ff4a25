// AngelaMos | 2026
// entitlement.go

package entitlement

import (
	"github.com/shopspring/decimal"
)

// Entitlement is the per-request view of a user's access. It is never
// persisted.
type Entitlement struct {
	UserID       string
	TotalDonated decimal.Decimal
	IsPremium    bool
	FreeIDs      []string
	DonatedIDs   []string

	policy  Policy
	free    map[string]struct{}
	donated map[string]struct{}
}

func (e *Entitlement) Access(componentID string) Access {
	if e.UserID == "" || e.policy.IsReserved(componentID) {
		return AccessDenied
	}

	if e.IsPremium {
		return AccessPremium
	}

	if _, ok := e.free[componentID]; ok {
		return AccessFree
	}

	if _, ok := e.donated[componentID]; ok {
		return AccessDonated
	}

	return AccessDenied
}

func (e *Entitlement) filterAccessible(all []string) []string {
	out := make([]string, 0, len(all))
	for _, id := range all {
		if e.Access(id).Granted() {
			out = append(out, id)
		}
	}
	return out
}

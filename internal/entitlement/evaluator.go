// AngelaMos | 2026
// evaluator.go

package entitlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// CatalogReader lists component ids. Implementations must exclude the
// reserved id and order free-tier candidates by name, then id.
type CatalogReader interface {
	FreeTierIDs(ctx context.Context, limit int) ([]string, error)
	AllIDs(ctx context.Context) ([]string, error)
}

type LedgerReader interface {
	TotalDonated(ctx context.Context, userID string) (decimal.Decimal, error)
	HasDonation(ctx context.Context, userID, componentID string) (bool, error)
	DonatedComponentIDs(ctx context.Context, userID string) ([]string, error)
	PremiumPurchased(ctx context.Context, userID string) (bool, error)
}

// Evaluator derives access decisions from the ledger and catalog on every
// call. It keeps no state between requests.
type Evaluator struct {
	policy  Policy
	catalog CatalogReader
	ledger  LedgerReader
}

func NewEvaluator(
	policy Policy,
	catalog CatalogReader,
	ledger LedgerReader,
) *Evaluator {
	return &Evaluator{
		policy:  policy,
		catalog: catalog,
		ledger:  ledger,
	}
}

func (e *Evaluator) Policy() Policy {
	return e.policy
}

func (e *Evaluator) FreeTierIDs(ctx context.Context) ([]string, error) {
	if e.policy.FreeAccessLimit == 0 {
		return []string{}, nil
	}

	ids, err := e.catalog.FreeTierIDs(ctx, e.policy.FreeAccessLimit)
	if err != nil {
		return nil, fmt.Errorf("free tier ids: %w", err)
	}

	if len(ids) > e.policy.FreeAccessLimit {
		ids = ids[:e.policy.FreeAccessLimit]
	}

	return ids, nil
}

func (e *Evaluator) TotalDonated(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, nil
	}

	total, err := e.ledger.TotalDonated(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total donated: %w", err)
	}

	return total, nil
}

func (e *Evaluator) IsPremium(ctx context.Context, userID string) (bool, error) {
	total, err := e.TotalDonated(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.policy.IsPremiumTotal(total), nil
}

// CheckAccess decides a single component. Order matters: premium short
// circuits, then the free tier, and only then the per-component donation
// lookup. Anonymous callers are always denied.
func (e *Evaluator) CheckAccess(
	ctx context.Context,
	userID, componentID string,
) (Access, error) {
	if userID == "" || e.policy.IsReserved(componentID) {
		return AccessDenied, nil
	}

	premium, err := e.IsPremium(ctx, userID)
	if err != nil {
		return AccessDenied, err
	}
	if premium {
		return AccessPremium, nil
	}

	free, err := e.FreeTierIDs(ctx)
	if err != nil {
		return AccessDenied, err
	}
	for _, id := range free {
		if id == componentID {
			return AccessFree, nil
		}
	}

	donated, err := e.ledger.HasDonation(ctx, userID, componentID)
	if err != nil {
		return AccessDenied, fmt.Errorf("check donation: %w", err)
	}
	if donated {
		return AccessDonated, nil
	}

	return AccessDenied, nil
}

// Snapshot loads everything needed to decide many components with a fixed
// number of queries. Decisions made through it match CheckAccess.
func (e *Evaluator) Snapshot(
	ctx context.Context,
	userID string,
) (*Entitlement, error) {
	ent := &Entitlement{
		UserID:       userID,
		TotalDonated: decimal.Zero,
		policy:       e.policy,
		free:         map[string]struct{}{},
		donated:      map[string]struct{}{},
	}

	if userID == "" {
		return ent, nil
	}

	total, err := e.TotalDonated(ctx, userID)
	if err != nil {
		return nil, err
	}
	ent.TotalDonated = total
	ent.IsPremium = e.policy.IsPremiumTotal(total)

	free, err := e.FreeTierIDs(ctx)
	if err != nil {
		return nil, err
	}
	ent.FreeIDs = free
	for _, id := range free {
		ent.free[id] = struct{}{}
	}

	donated, err := e.ledger.DonatedComponentIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("donated component ids: %w", err)
	}
	ent.DonatedIDs = donated
	for _, id := range donated {
		ent.donated[id] = struct{}{}
	}

	return ent, nil
}

// AccessibleIDs returns every non-reserved component id the user may open.
func (e *Evaluator) AccessibleIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	if userID == "" {
		return []string{}, nil
	}

	ent, err := e.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := e.catalog.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("all component ids: %w", err)
	}

	return ent.filterAccessible(all), nil
}

// Summary backs the account status endpoint.
func (e *Evaluator) Summary(
	ctx context.Context,
	userID string,
) (*AccountSummary, error) {
	ent, err := e.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	all, err := e.catalog.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("all component ids: %w", err)
	}

	purchased, err := e.ledger.PremiumPurchased(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("premium purchased: %w", err)
	}

	accessible := ent.filterAccessible(all)

	return &AccountSummary{
		UserID:                 userID,
		TotalDonated:           ent.TotalDonated.StringFixed(2),
		Currency:               e.policy.Currency,
		IsPremium:              ent.IsPremium,
		PremiumPurchased:       purchased,
		PremiumThreshold:       e.policy.PremiumThreshold.StringFixed(2),
		RemainingForPremium:    e.policy.RemainingForPremium(ent.TotalDonated).StringFixed(2),
		FreeLimit:              e.policy.FreeAccessLimit,
		FreeComponentIDs:       nonNil(ent.FreeIDs),
		DonatedComponentIDs:    nonNil(ent.DonatedIDs),
		AccessibleComponentIDs: accessible,
		AccessibleCount:        len(accessible),
		TotalComponents:        len(all),
	}, nil
}

type AccountSummary struct {
	UserID                 string   `json:"user_id"`
	TotalDonated           string   `json:"total_donated"`
	Currency               string   `json:"currency"`
	IsPremium              bool     `json:"is_premium"`
	PremiumPurchased       bool     `json:"premium_purchased"`
	PremiumThreshold       string   `json:"premium_threshold"`
	RemainingForPremium    string   `json:"remaining_for_premium"`
	FreeLimit              int      `json:"free_limit"`
	FreeComponentIDs       []string `json:"free_component_ids"`
	DonatedComponentIDs    []string `json:"donated_component_ids"`
	AccessibleComponentIDs []string `json:"accessible_component_ids"`
	AccessibleCount        int      `json:"accessible_count"`
	TotalComponents        int      `json:"total_components"`
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

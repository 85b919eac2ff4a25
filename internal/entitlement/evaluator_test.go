// AngelaMos | 2026
// evaluator_test.go

package entitlement

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	// sorted by name, then id, reserved id already excluded
	ids []string
	err error
}

func (f *fakeCatalog) FreeTierIDs(_ context.Context, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.ids) {
		limit = len(f.ids)
	}
	return append([]string(nil), f.ids[:limit]...), nil
}

func (f *fakeCatalog) AllIDs(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.ids...), nil
}

type fakeLedger struct {
	donations map[string]map[string]decimal.Decimal
	premium   map[string]decimal.Decimal
	lookups   int
	err       error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		donations: map[string]map[string]decimal.Decimal{},
		premium:   map[string]decimal.Decimal{},
	}
}

func (f *fakeLedger) donate(userID, componentID string, amount int64) {
	if f.donations[userID] == nil {
		f.donations[userID] = map[string]decimal.Decimal{}
	}
	f.donations[userID][componentID] = f.donations[userID][componentID].
		Add(decimal.NewFromInt(amount))
}

func (f *fakeLedger) TotalDonated(_ context.Context, userID string) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	total := f.premium[userID]
	for _, amt := range f.donations[userID] {
		total = total.Add(amt)
	}
	return total, nil
}

func (f *fakeLedger) HasDonation(_ context.Context, userID, componentID string) (bool, error) {
	f.lookups++
	_, ok := f.donations[userID][componentID]
	return ok, nil
}

func (f *fakeLedger) DonatedComponentIDs(_ context.Context, userID string) ([]string, error) {
	ids := make([]string, 0, len(f.donations[userID]))
	for id := range f.donations[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeLedger) PremiumPurchased(_ context.Context, userID string) (bool, error) {
	_, ok := f.premium[userID]
	return ok, nil
}

func testPolicy() Policy {
	return Policy{
		FreeAccessLimit:     2,
		PremiumThreshold:    decimal.NewFromInt(50),
		Currency:            "MXN",
		ReservedComponentID: "premium-access",
	}
}

func newTestEvaluator() (*Evaluator, *fakeLedger) {
	ledger := newFakeLedger()
	catalog := &fakeCatalog{ids: []string{"A", "B", "C", "D"}}
	return NewEvaluator(testPolicy(), catalog, ledger), ledger
}

func mustAccess(t *testing.T, e *Evaluator, userID, componentID string) Access {
	t.Helper()
	access, err := e.CheckAccess(context.Background(), userID, componentID)
	if err != nil {
		t.Fatalf("CheckAccess(%s, %s) failed: %v", userID, componentID, err)
	}
	return access
}

func TestCheckAccess_DonationJourney(t *testing.T) {
	e, ledger := newTestEvaluator()
	ctx := context.Background()

	free, err := e.FreeTierIDs(ctx)
	if err != nil {
		t.Fatalf("FreeTierIDs failed: %v", err)
	}
	if len(free) != 2 || free[0] != "A" || free[1] != "B" {
		t.Fatalf("Expected free tier [A B], got %v", free)
	}

	if got := mustAccess(t, e, "u1", "C"); got != AccessDenied {
		t.Errorf("Expected C denied, got %s", got)
	}
	if got := mustAccess(t, e, "u1", "A"); got != AccessFree {
		t.Errorf("Expected A free, got %s", got)
	}

	ledger.donate("u1", "C", 20)

	if got := mustAccess(t, e, "u1", "C"); got != AccessDonated {
		t.Errorf("Expected C donated, got %s", got)
	}
	if got := mustAccess(t, e, "u1", "D"); got != AccessDenied {
		t.Errorf("Expected D denied, got %s", got)
	}

	ledger.donate("u1", "D", 35)

	premium, err := e.IsPremium(ctx, "u1")
	if err != nil {
		t.Fatalf("IsPremium failed: %v", err)
	}
	if !premium {
		t.Fatal("Expected user to be premium after donating 55")
	}
	if got := mustAccess(t, e, "u1", "D"); got != AccessPremium {
		t.Errorf("Expected D premium, got %s", got)
	}

	ids, err := e.AccessibleIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("AccessibleIDs failed: %v", err)
	}
	if len(ids) != 4 {
		t.Errorf("Expected all 4 components accessible, got %v", ids)
	}
}

func TestCheckAccess_PremiumCoversEverything(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.premium["rich"] = decimal.NewFromInt(50)

	for _, id := range []string{"A", "B", "C", "D", "never-donated"} {
		if got := mustAccess(t, e, "rich", id); got != AccessPremium {
			t.Errorf("Expected %s premium, got %s", id, got)
		}
	}

	if ledger.lookups != 0 {
		t.Errorf("Expected premium to skip donation lookups, got %d", ledger.lookups)
	}
}

func TestCheckAccess_FreeIndependentOfDonations(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.donate("u2", "A", 10)

	tests := []struct {
		componentID string
		want        Access
	}{
		{"A", AccessFree},
		{"B", AccessFree},
		{"C", AccessDenied},
		{"D", AccessDenied},
	}

	for _, tt := range tests {
		if got := mustAccess(t, e, "u2", tt.componentID); got != tt.want {
			t.Errorf("CheckAccess(%s) = %s, want %s", tt.componentID, got, tt.want)
		}
	}

	if ledger.lookups != 2 {
		t.Errorf("Expected donation lookups only for C and D, got %d", ledger.lookups)
	}
}

func TestCheckAccess_AnonymousAndReserved(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.premium["rich"] = decimal.NewFromInt(100)

	if got := mustAccess(t, e, "", "A"); got != AccessDenied {
		t.Errorf("Expected anonymous denied, got %s", got)
	}
	if got := mustAccess(t, e, "rich", "premium-access"); got != AccessDenied {
		t.Errorf("Expected reserved id denied, got %s", got)
	}
}

func TestFreeTierIDs_StableAndBounded(t *testing.T) {
	e, _ := newTestEvaluator()
	ctx := context.Background()

	first, err := e.FreeTierIDs(ctx)
	if err != nil {
		t.Fatalf("FreeTierIDs failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := e.FreeTierIDs(ctx)
		if err != nil {
			t.Fatalf("FreeTierIDs failed: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("Expected stable size %d, got %d", len(first), len(again))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("Expected stable order %v, got %v", first, again)
			}
		}
	}

	small := NewEvaluator(testPolicy(), &fakeCatalog{ids: []string{"only"}}, newFakeLedger())
	ids, err := small.FreeTierIDs(ctx)
	if err != nil {
		t.Fatalf("FreeTierIDs failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("Expected free tier capped by catalog size, got %v", ids)
	}

	policy := testPolicy()
	policy.FreeAccessLimit = 0
	none := NewEvaluator(policy, &fakeCatalog{err: errors.New("must not be called")}, newFakeLedger())
	ids, err = none.FreeTierIDs(ctx)
	if err != nil || len(ids) != 0 {
		t.Errorf("Expected empty free tier with zero limit, got %v, %v", ids, err)
	}
}

func TestSnapshot_MatchesCheckAccess(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.donate("u3", "D", 5)
	ctx := context.Background()

	ent, err := e.Snapshot(ctx, "u3")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	for _, id := range []string{"A", "B", "C", "D", "premium-access"} {
		want := mustAccess(t, e, "u3", id)
		if got := ent.Access(id); got != want {
			t.Errorf("Snapshot.Access(%s) = %s, CheckAccess = %s", id, got, want)
		}
	}
}

func TestTotalDonated_MissingIsZero(t *testing.T) {
	e, _ := newTestEvaluator()

	total, err := e.TotalDonated(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("TotalDonated failed: %v", err)
	}
	if !total.Equal(decimal.Zero) {
		t.Errorf("Expected zero total, got %s", total)
	}
}

func TestCheckAccess_PropagatesLedgerError(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.err = errors.New("db down")

	access, err := e.CheckAccess(context.Background(), "u1", "C")
	if err == nil {
		t.Fatal("Expected ledger error to surface")
	}
	if access != AccessDenied {
		t.Errorf("Expected denied on error, got %s", access)
	}
}

func TestSummary(t *testing.T) {
	e, ledger := newTestEvaluator()
	ledger.donate("u4", "C", 20)

	s, err := e.Summary(context.Background(), "u4")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	if s.IsPremium {
		t.Error("Expected non-premium summary")
	}
	if s.TotalDonated != "20.00" {
		t.Errorf("Expected total 20.00, got %s", s.TotalDonated)
	}
	if s.RemainingForPremium != "30.00" {
		t.Errorf("Expected remaining 30.00, got %s", s.RemainingForPremium)
	}
	if s.AccessibleCount != 3 || s.TotalComponents != 4 {
		t.Errorf("Expected 3 of 4 accessible, got %d of %d", s.AccessibleCount, s.TotalComponents)
	}
}

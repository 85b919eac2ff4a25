// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
)

type Repository interface {
	entitlement.LedgerReader

	Accumulate(
		ctx context.Context,
		userID, componentID string,
		amount decimal.Decimal,
	) (*Donation, error)
	AccumulatePremium(
		ctx context.Context,
		userID string,
		amount decimal.Decimal,
	) (*AccountState, error)
	EnsureAccountState(ctx context.Context, userID string) error
	GetDonation(ctx context.Context, userID, componentID string) (*Donation, error)
	GetAccountState(ctx context.Context, userID string) (*AccountState, error)
	ListByUser(ctx context.Context, userID string) ([]Donation, error)
	Stats(ctx context.Context, premiumThreshold decimal.Decimal) (*Stats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Accumulate adds amount to the (user, component) row in one statement so
// concurrent captures for the same pair cannot lose an update.
func (r *repository) Accumulate(
	ctx context.Context,
	userID, componentID string,
	amount decimal.Decimal,
) (*Donation, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("accumulate donation: negative amount: %w", core.ErrInvalidInput)
	}

	now := time.Now().UTC()
	d := &Donation{
		ID:          uuid.New().String(),
		UserID:      userID,
		ComponentID: componentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := r.db.Rebind(`
		INSERT INTO donations (id, user_id, component_id, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, component_id) DO UPDATE
		SET amount = donations.amount + excluded.amount,
		    updated_at = excluded.updated_at
		RETURNING id, amount`)

	row := r.db.QueryRowxContext(ctx, query,
		d.ID, userID, componentID, amount, now, now,
	)
	if err := row.Scan(&d.ID, &d.Amount); err != nil {
		return nil, fmt.Errorf("accumulate donation: %w", err)
	}
	d.Amount = core.RoundMoney(d.Amount)

	return d, nil
}

func (r *repository) AccumulatePremium(
	ctx context.Context,
	userID string,
	amount decimal.Decimal,
) (*AccountState, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("accumulate premium: negative amount: %w", core.ErrInvalidInput)
	}

	now := time.Now().UTC()
	s := &AccountState{
		UserID:           userID,
		PremiumPurchased: true,
		UpdatedAt:        now,
	}

	query := r.db.Rebind(`
		INSERT INTO account_states (user_id, premium_purchased, premium_amount, created_at, updated_at)
		VALUES (?, TRUE, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET premium_purchased = TRUE,
		    premium_amount = account_states.premium_amount + excluded.premium_amount,
		    updated_at = excluded.updated_at
		RETURNING premium_amount`)

	row := r.db.QueryRowxContext(ctx, query, userID, amount, now, now)
	if err := row.Scan(&s.PremiumAmount); err != nil {
		return nil, fmt.Errorf("accumulate premium: %w", err)
	}
	s.PremiumAmount = core.RoundMoney(s.PremiumAmount)

	return s, nil
}

func (r *repository) EnsureAccountState(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	query := r.db.Rebind(`
		INSERT INTO account_states (user_id, premium_purchased, premium_amount, created_at, updated_at)
		VALUES (?, FALSE, 0, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, userID, now, now); err != nil {
		return fmt.Errorf("ensure account state: %w", err)
	}

	return nil
}

func (r *repository) GetDonation(
	ctx context.Context,
	userID, componentID string,
) (*Donation, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, component_id, amount, created_at, updated_at
		FROM donations
		WHERE user_id = ? AND component_id = ?`)

	var d Donation
	err := r.db.GetContext(ctx, &d, query, userID, componentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get donation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get donation: %w", err)
	}

	d.Amount = core.RoundMoney(d.Amount)
	return &d, nil
}

func (r *repository) GetAccountState(
	ctx context.Context,
	userID string,
) (*AccountState, error) {
	query := r.db.Rebind(`
		SELECT user_id, premium_purchased, premium_amount, created_at, updated_at
		FROM account_states
		WHERE user_id = ?`)

	var s AccountState
	err := r.db.GetContext(ctx, &s, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account state: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account state: %w", err)
	}

	s.PremiumAmount = core.RoundMoney(s.PremiumAmount)
	return &s, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Donation, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, component_id, amount, created_at, updated_at
		FROM donations
		WHERE user_id = ?
		ORDER BY component_id ASC`)

	var donations []Donation
	if err := r.db.SelectContext(ctx, &donations, query, userID); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}

	for i := range donations {
		donations[i].Amount = core.RoundMoney(donations[i].Amount)
	}
	return donations, nil
}

func (r *repository) TotalDonated(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	query := r.db.Rebind(`
		SELECT
			COALESCE((SELECT SUM(amount) FROM donations WHERE user_id = ?), 0) +
			COALESCE((SELECT premium_amount FROM account_states WHERE user_id = ?), 0)`)

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, userID, userID); err != nil {
		return decimal.Zero, fmt.Errorf("total donated: %w", err)
	}

	return core.RoundMoney(total), nil
}

func (r *repository) HasDonation(
	ctx context.Context,
	userID, componentID string,
) (bool, error) {
	query := r.db.Rebind(`
		SELECT EXISTS(SELECT 1 FROM donations WHERE user_id = ? AND component_id = ?)`)

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, componentID); err != nil {
		return false, fmt.Errorf("check donation: %w", err)
	}

	return exists, nil
}

func (r *repository) DonatedComponentIDs(
	ctx context.Context,
	userID string,
) ([]string, error) {
	query := r.db.Rebind(`
		SELECT component_id FROM donations
		WHERE user_id = ?
		ORDER BY component_id ASC`)

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("donated component ids: %w", err)
	}

	return ids, nil
}

func (r *repository) PremiumPurchased(ctx context.Context, userID string) (bool, error) {
	query := r.db.Rebind(`
		SELECT EXISTS(
			SELECT 1 FROM account_states
			WHERE user_id = ? AND premium_purchased = TRUE
		)`)

	var purchased bool
	if err := r.db.GetContext(ctx, &purchased, query, userID); err != nil {
		return false, fmt.Errorf("premium purchased: %w", err)
	}

	return purchased, nil
}

func (r *repository) Stats(
	ctx context.Context,
	premiumThreshold decimal.Decimal,
) (*Stats, error) {
	var s Stats

	totalsQuery := `
		SELECT COUNT(DISTINCT user_id) AS donors,
		       COALESCE(SUM(amount), 0) AS total_donated
		FROM (
			SELECT user_id, amount FROM donations
			UNION ALL
			SELECT user_id, premium_amount AS amount FROM account_states
			WHERE premium_amount > 0
		) contributions`
	if err := r.db.QueryRowxContext(ctx, totalsQuery).Scan(&s.Donors, &s.TotalDonated); err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}

	s.TotalDonated = core.RoundMoney(s.TotalDonated)

	buyersQuery := `SELECT COUNT(*) FROM account_states WHERE premium_purchased = TRUE`
	if err := r.db.GetContext(ctx, &s.PremiumBuyers, buyersQuery); err != nil {
		return nil, fmt.Errorf("count premium buyers: %w", err)
	}

	perUserQuery := `
		SELECT user_id, SUM(amount) AS total
		FROM (
			SELECT user_id, amount FROM donations
			UNION ALL
			SELECT user_id, premium_amount AS amount FROM account_states
		) contributions
		GROUP BY user_id`

	var totals []userTotal
	if err := r.db.SelectContext(ctx, &totals, perUserQuery); err != nil {
		return nil, fmt.Errorf("per user totals: %w", err)
	}

	for _, t := range totals {
		if core.RoundMoney(t.Total).GreaterThanOrEqual(premiumThreshold) {
			s.PremiumAccounts++
		}
	}

	return &s, nil
}

type userTotal struct {
	UserID string          `db:"user_id"`
	Total  decimal.Decimal `db:"total"`
}

var _ entitlement.LedgerReader = (*repository)(nil)

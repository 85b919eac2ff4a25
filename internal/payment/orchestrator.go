// AngelaMos | 2026
// orchestrator.go

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
	"github.com/carterperez-dev/component-store/internal/paypal"
)

const tracerName = "component-store/payment"

type Stage string

const (
	StageCreated             Stage = "CREATED"
	StageTokenAcquired       Stage = "TOKEN_ACQUIRED"
	StageCaptured            Stage = "CAPTURED"
	StageLedgerUpdated       Stage = "LEDGER_UPDATED"
	StageEntitlementReported Stage = "ENTITLEMENT_REPORTED"
)

// Provider is the subset of the checkout API the payment flow drives.
type Provider interface {
	Token(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, req paypal.CreateOrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, token, orderID string) (*paypal.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*paypal.Order, error)
}

var (
	ErrNotCompleted     = fmt.Errorf("payment was not completed: %w", core.ErrUpstream)
	ErrCurrencyMismatch = fmt.Errorf("captured currency does not match order: %w", core.ErrUpstream)
)

func AlreadyPremiumError() *core.AppError {
	return core.NewAppError(
		core.ErrConflict,
		"account already has premium access",
		http.StatusConflict,
		"ALREADY_PREMIUM",
	)
}

type CaptureResult struct {
	OrderID      string          `json:"order_id"`
	Purpose      Purpose         `json:"purpose"`
	ComponentID  string          `json:"component_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CaptureID    string          `json:"capture_id"`
	Stage        Stage           `json:"stage"`
	WasUpgraded  bool            `json:"was_upgraded"`
	IsPremium    bool            `json:"is_premium"`
	TotalDonated decimal.Decimal `json:"total_donated"`
}

// Orchestrator drives one capture attempt through
// CREATED, TOKEN_ACQUIRED, CAPTURED, LEDGER_UPDATED, ENTITLEMENT_REPORTED.
// There are no back-edges and nothing is retried.
type Orchestrator struct {
	provider  Provider
	orders    Repository
	settler   Settler
	evaluator *entitlement.Evaluator
	logger    *slog.Logger
}

func NewOrchestrator(
	provider Provider,
	orders Repository,
	settler Settler,
	evaluator *entitlement.Evaluator,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		provider:  provider,
		orders:    orders,
		settler:   settler,
		evaluator: evaluator,
		logger:    logger.With("component", "payment_orchestrator"),
	}
}

func (o *Orchestrator) Capture(
	ctx context.Context,
	orderID string,
) (result *CaptureResult, err error) {
	ctx, span := core.StartSpan(ctx, tracerName, "payment.capture",
		attribute.String("order.id", orderID),
	)
	defer func() {
		if err != nil {
			core.SetSpanError(ctx, err)
		}
		span.End()
	}()

	order, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	log := o.logger.With("order_id", order.ID, "user_id", order.UserID)

	if order.Status != OrderCreated {
		return nil, core.ConflictError(
			fmt.Sprintf("order is already %s", order.Status),
		)
	}

	before, err := o.evaluator.IsPremium(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	if order.IsPremiumUpgrade() && before {
		o.fail(ctx, log, order, "account already has premium access")
		return nil, AlreadyPremiumError()
	}

	o.stage(ctx, log, StageCreated)

	token, err := o.provider.Token(ctx)
	if err != nil {
		log.Error("provider token exchange failed", "error", err)
		return nil, err
	}
	o.stage(ctx, log, StageTokenAcquired)

	captured, err := o.provider.CaptureOrder(ctx, token, order.ID)
	if err != nil {
		o.fail(ctx, log, order, err.Error())
		return nil, err
	}
	if captured.Status != paypal.StatusCompleted {
		o.fail(ctx, log, order, "provider status "+string(captured.Status))
		return nil, fmt.Errorf("capture order %s: status %s: %w",
			order.ID, captured.Status, ErrNotCompleted)
	}

	if currency := captured.CapturedCurrency(); currency != "" &&
		!strings.EqualFold(currency, order.Currency) {
		log.Error("captured currency differs from order currency",
			"order_currency", order.Currency,
			"captured_currency", currency,
			"capture_id", captured.CaptureID(),
		)
		o.fail(ctx, log, order, "captured currency "+currency)
		return nil, fmt.Errorf("capture order %s: currency %s: %w",
			order.ID, currency, ErrCurrencyMismatch)
	}

	amount := order.Amount
	if v, ok := captured.CapturedAmount(); ok {
		if !v.Equal(order.Amount) {
			log.Warn("captured amount differs from order amount",
				"order_amount", order.Amount.StringFixed(2),
				"captured_amount", v.StringFixed(2),
			)
		}
		amount = v
	}
	captureID := captured.CaptureID()
	o.stage(ctx, log, StageCaptured, attribute.String("capture.id", captureID))

	if err := o.settler.Settle(ctx, order, captureID, amount); err != nil {
		// the provider holds the money; the capture id is needed to reconcile
		log.Error("ledger update failed after capture",
			"capture_id", captureID,
			"amount", amount.StringFixed(2),
			"error", err,
		)
		return nil, err
	}
	o.stage(ctx, log, StageLedgerUpdated)

	total, err := o.evaluator.TotalDonated(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	after := o.evaluator.Policy().IsPremiumTotal(total)

	result = &CaptureResult{
		OrderID:      order.ID,
		Purpose:      order.Purpose,
		ComponentID:  order.ComponentKey(),
		Amount:       amount,
		CaptureID:    captureID,
		Stage:        StageEntitlementReported,
		WasUpgraded:  !before && after,
		IsPremium:    after,
		TotalDonated: total,
	}
	o.stage(ctx, log, StageEntitlementReported,
		attribute.Bool("premium.upgraded", result.WasUpgraded),
	)

	return result, nil
}

// Cancel moves a pending order to CANCELLED. The ledger is not touched.
func (o *Orchestrator) Cancel(ctx context.Context, orderID string) (*Order, error) {
	order, err := o.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.orders.MarkCancelled(ctx, order.ID); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, core.ConflictError(fmt.Sprintf("order is already %s", order.Status))
		}
		return nil, err
	}

	order.Status = OrderCancelled
	o.logger.Info("payment order cancelled", "order_id", order.ID, "user_id", order.UserID)

	return order, nil
}

func (o *Orchestrator) stage(
	ctx context.Context,
	log *slog.Logger,
	stage Stage,
	attrs ...attribute.KeyValue,
) {
	core.AddSpanEvent(ctx, string(stage), attrs...)
	log.Info("payment stage", "stage", stage)
}

func (o *Orchestrator) fail(
	ctx context.Context,
	log *slog.Logger,
	order *Order,
	reason string,
) {
	log.Warn("payment attempt failed", "reason", reason)

	if err := o.orders.MarkFailed(ctx, order.ID, reason); err != nil {
		log.Error("mark order failed", "error", err)
	}
}

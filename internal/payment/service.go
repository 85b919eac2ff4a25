// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
	"github.com/carterperez-dev/component-store/internal/paypal"
)

// AttemptLimiter throttles order creation per user. Implementations decide
// where the counters live.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type ComponentChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type AccountEnsurer interface {
	EnsureAccountState(ctx context.Context, userID string) error
}

type Options struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
	ReturnURL string
	CancelURL string
	BrandName string
}

type Service struct {
	provider     Provider
	orders       Repository
	components   ComponentChecker
	accounts     AccountEnsurer
	evaluator    *entitlement.Evaluator
	orchestrator *Orchestrator
	limiter      AttemptLimiter
	opts         Options
	logger       *slog.Logger
}

func NewService(
	provider Provider,
	orders Repository,
	components ComponentChecker,
	accounts AccountEnsurer,
	evaluator *entitlement.Evaluator,
	orchestrator *Orchestrator,
	limiter AttemptLimiter,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		provider:     provider,
		orders:       orders,
		components:   components,
		accounts:     accounts,
		evaluator:    evaluator,
		orchestrator: orchestrator,
		limiter:      limiter,
		opts:         opts,
		logger:       logger.With("component", "payment_service"),
	}
}

func (s *Service) Pricing() PricingInfo {
	return PricingInfo{
		Pricing:   s.evaluator.Policy().Pricing(),
		MinAmount: s.opts.MinAmount.StringFixed(2),
		MaxAmount: s.opts.MaxAmount.StringFixed(2),
	}
}

func (s *Service) validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.ValidationError("amount must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return core.ValidationError("amount must have at most two decimal places")
	}
	if amount.LessThan(s.opts.MinAmount) || amount.GreaterThan(s.opts.MaxAmount) {
		return core.ValidationError(fmt.Sprintf(
			"amount must be between %s and %s",
			s.opts.MinAmount.StringFixed(2),
			s.opts.MaxAmount.StringFixed(2),
		))
	}
	return nil
}

func (s *Service) CreateOrder(
	ctx context.Context,
	userID string,
	req CreateOrderRequest,
) (*CreateOrderResponse, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			s.logger.Warn("order attempt limiter failed, allowing", "error", err)
		} else if !allowed {
			return nil, core.RateLimitedError("too many order attempts, try again later")
		}
	}

	if err := s.validateAmount(req.Amount); err != nil {
		return nil, err
	}

	order := &Order{
		UserID:   userID,
		Amount:   req.Amount,
		Currency: s.evaluator.Policy().Currency,
		Status:   OrderCreated,
	}

	unit := paypal.PurchaseUnit{
		CustomID: userID,
		Amount:   ptr(paypal.NewMoney(order.Currency, req.Amount)),
	}

	if req.IsPremiumUpgrade {
		premium, err := s.evaluator.IsPremium(ctx, userID)
		if err != nil {
			return nil, err
		}
		if premium {
			return nil, AlreadyPremiumError()
		}

		if err := s.accounts.EnsureAccountState(ctx, userID); err != nil {
			return nil, err
		}

		order.Purpose = PurposePremium
		unit.ReferenceID = string(PurposePremium)
		unit.Description = "Premium access"
	} else {
		if req.ComponentID == "" {
			return nil, core.ValidationError("component_id is required unless is_premium_upgrade is set")
		}

		exists, err := s.components.Exists(ctx, req.ComponentID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, core.NotFoundError("component")
		}

		componentID := req.ComponentID
		order.Purpose = PurposeComponent
		order.ComponentID = &componentID
		unit.ReferenceID = componentID
		unit.Description = "Donation for component " + componentID
	}

	token, err := s.provider.Token(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.provider.CreateOrder(ctx, token, paypal.CreateOrderRequest{
		Intent:        "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{unit},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:   s.opts.BrandName,
			LandingPage: "NO_PREFERENCE",
			UserAction:  "PAY_NOW",
			ReturnURL:   s.opts.ReturnURL,
			CancelURL:   s.opts.CancelURL,
		},
	})
	if err != nil {
		return nil, err
	}

	order.ID = created.ID
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("payment order created",
		"order_id", order.ID,
		"user_id", userID,
		"purpose", order.Purpose,
		"amount", order.Amount.StringFixed(2),
	)

	return &CreateOrderResponse{
		OrderID:    order.ID,
		Status:     order.Status,
		Purpose:    order.Purpose,
		Amount:     order.Amount.StringFixed(2),
		Currency:   order.Currency,
		ApproveURL: created.ApproveURL(),
		Links:      created.Links,
	}, nil
}

func (s *Service) Capture(ctx context.Context, token string) (*CaptureResult, error) {
	if token == "" {
		return nil, core.ValidationError("token is required")
	}
	return s.orchestrator.Capture(ctx, token)
}

func (s *Service) Cancel(ctx context.Context, token string) (*Order, error) {
	if token == "" {
		return nil, core.ValidationError("token is required")
	}
	return s.orchestrator.Cancel(ctx, token)
}

// GetOrder returns the stored order with the provider's live status when
// it can be fetched. Other users' orders look missing.
func (s *Service) GetOrder(
	ctx context.Context,
	userID, orderID string,
) (*OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, core.NotFoundError("order")
	}

	resp := ToOrderResponse(order)

	token, err := s.provider.Token(ctx)
	if err == nil {
		var live *paypal.Order
		live, err = s.provider.GetOrder(ctx, token, order.ID)
		if err == nil {
			resp.ProviderStatus = live.Status
			resp.Links = live.Links
		}
	}
	if err != nil {
		s.logger.Warn("provider order lookup failed", "order_id", order.ID, "error", err)
	}

	return &resp, nil
}

func ptr[T any](v T) *T {
	return &v
}

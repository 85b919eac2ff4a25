// AngelaMos | 2026
// payment_test.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/catalog"
	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
	"github.com/carterperez-dev/component-store/internal/ledger"
	"github.com/carterperez-dev/component-store/internal/middleware"
	"github.com/carterperez-dev/component-store/internal/paypal"
	"github.com/carterperez-dev/component-store/internal/testutil"
)

type MockProvider struct {
	mu sync.Mutex

	TokenFunc   func(ctx context.Context) (string, error)
	CreateFunc  func(ctx context.Context) (*paypal.Order, error)
	CaptureFunc func(ctx context.Context, orderID string) (*paypal.Order, error)

	nextID   int
	creates  int
	captures int
}

func (m *MockProvider) Token(ctx context.Context) (string, error) {
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx)
	}
	return "tok", nil
}

func (m *MockProvider) CreateOrder(
	ctx context.Context,
	_ string,
	_ paypal.CreateOrderRequest,
) (*paypal.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	m.nextID++
	id := "ORD-" + string(rune('0'+m.nextID))

	return &paypal.Order{
		ID:     id,
		Status: paypal.StatusCreated,
		Links: []paypal.Link{
			{Href: "https://paypal.test/checkoutnow?token=" + id, Rel: "approve", Method: "GET"},
		},
	}, nil
}

func (m *MockProvider) CaptureOrder(
	ctx context.Context,
	_ string,
	orderID string,
) (*paypal.Order, error) {
	m.mu.Lock()
	m.captures++
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, orderID)
	}
	return completed(orderID, ""), nil
}

func (m *MockProvider) GetOrder(_ context.Context, _ string, orderID string) (*paypal.Order, error) {
	return &paypal.Order{ID: orderID, Status: paypal.StatusApproved}, nil
}

func completed(orderID, amount string) *paypal.Order {
	capture := paypal.Capture{ID: "CAP-" + orderID, Status: "COMPLETED"}
	if amount != "" {
		capture.Amount = &paypal.Money{CurrencyCode: "MXN", Value: amount}
	}
	return &paypal.Order{
		ID:     orderID,
		Status: paypal.StatusCompleted,
		PurchaseUnits: []paypal.PurchaseUnit{{
			Payments: &paypal.Payments{Captures: []paypal.Capture{capture}},
		}},
	}
}

type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	return f.allow, nil
}

type env struct {
	db        *sqlx.DB
	provider  *MockProvider
	orders    Repository
	ledger    ledger.Repository
	evaluator *entitlement.Evaluator
	service   *Service
	limiter   *fakeLimiter
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	components := catalog.NewRepository(db, "premium-access")
	for _, c := range []catalog.Component{
		{ID: "a", Name: "Alpha", Type: "button", Code: "<A/>"},
		{ID: "b", Name: "Bravo", Type: "card", Code: "<B/>"},
		{ID: "c", Name: "Charlie", Type: "modal", Code: "<C/>"},
	} {
		c := c
		if err := components.Create(ctx, &c); err != nil {
			t.Fatalf("seed component: %v", err)
		}
	}

	ledgerRepo := ledger.NewRepository(db)
	orders := NewRepository(db)
	policy := entitlement.Policy{
		FreeAccessLimit:     1,
		PremiumThreshold:    decimal.NewFromInt(50),
		Currency:            "MXN",
		ReservedComponentID: "premium-access",
	}
	evaluator := entitlement.NewEvaluator(policy, components, ledgerRepo)
	provider := &MockProvider{}
	limiter := &fakeLimiter{allow: true}

	orchestrator := NewOrchestrator(provider, orders, NewSettler(db), evaluator, nil)
	service := NewService(provider, orders, components, ledgerRepo, evaluator, orchestrator, limiter,
		Options{
			MinAmount: decimal.NewFromInt(1),
			MaxAmount: decimal.NewFromInt(10000),
			Currency:  "MXN",
			ReturnURL: "http://api.test/v1/payment/capture-order",
			CancelURL: "http://api.test/v1/payment/cancel-order",
			BrandName: "Component Store",
		}, nil)

	return &env{
		db:        db,
		provider:  provider,
		orders:    orders,
		ledger:    ledgerRepo,
		evaluator: evaluator,
		service:   service,
		limiter:   limiter,
	}
}

func (e *env) createOrder(t *testing.T, user string, req CreateOrderRequest) *CreateOrderResponse {
	t.Helper()
	resp, err := e.service.CreateOrder(context.Background(), user, req)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return resp
}

func (e *env) donationRows(t *testing.T) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, `SELECT COUNT(*) FROM donations`); err != nil {
		t.Fatalf("count donations: %v", err)
	}
	return n
}

func (e *env) status(t *testing.T, orderID string) OrderStatus {
	t.Helper()
	o, err := e.orders.GetByID(context.Background(), orderID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	return o.Status
}

func TestCapture_ComponentDonation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.RequireFromString("20.00"), ComponentID: "c",
	})
	if created.ApproveURL == "" || created.Status != OrderCreated {
		t.Fatalf("Unexpected create response %+v", created)
	}

	result, err := e.service.Capture(ctx, created.OrderID)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if result.Stage != StageEntitlementReported || result.WasUpgraded || result.IsPremium {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.CaptureID != "CAP-"+created.OrderID {
		t.Errorf("Expected capture id recorded, got %s", result.CaptureID)
	}

	d, err := e.ledger.GetDonation(ctx, "u1", "c")
	if err != nil {
		t.Fatalf("GetDonation failed: %v", err)
	}
	if !d.Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected donation 20, got %s", d.Amount)
	}

	access, err := e.evaluator.CheckAccess(ctx, "u1", "c")
	if err != nil || access != entitlement.AccessDonated {
		t.Errorf("Expected donated access, got %s, %v", access, err)
	}

	if got := e.status(t, created.OrderID); got != OrderCaptured {
		t.Errorf("Expected CAPTURED, got %s", got)
	}
}

func TestCapture_NotCompletedWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.provider.CaptureFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
		return &paypal.Order{ID: orderID, Status: paypal.StatusPayerActionRequired}, nil
	}

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(30), ComponentID: "b",
	})

	_, err := e.service.Capture(context.Background(), created.OrderID)
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("Expected ErrNotCompleted, got %v", err)
	}

	if n := e.donationRows(t); n != 0 {
		t.Errorf("Expected no donation rows, got %d", n)
	}
	if got := e.status(t, created.OrderID); got != OrderFailed {
		t.Errorf("Expected FAILED, got %s", got)
	}
}

func TestCapture_PremiumUpgradeReportedOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(50), IsPremiumUpgrade: true,
	})

	// created while the user was not yet premium, captured afterwards
	stale := &Order{
		ID:       "ORD-STALE",
		UserID:   "u1",
		Purpose:  PurposePremium,
		Amount:   decimal.NewFromInt(50),
		Currency: "MXN",
	}
	if err := e.orders.Create(ctx, stale); err != nil {
		t.Fatalf("Create stale order: %v", err)
	}

	result, err := e.service.Capture(ctx, first.OrderID)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !result.WasUpgraded || !result.IsPremium {
		t.Errorf("Expected upgrade on first premium capture, got %+v", result)
	}

	creates := e.provider.creates
	_, err = e.service.CreateOrder(ctx, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(50), IsPremiumUpgrade: true,
	})
	var appErr *core.AppError
	if !errors.As(err, &appErr) || appErr.Code != "ALREADY_PREMIUM" {
		t.Fatalf("Expected ALREADY_PREMIUM, got %v", err)
	}
	if e.provider.creates != creates {
		t.Error("Redundant premium order must not reach the provider")
	}

	captures := e.provider.captures
	_, err = e.service.Capture(ctx, stale.ID)
	if !errors.As(err, &appErr) || appErr.Code != "ALREADY_PREMIUM" {
		t.Fatalf("Expected ALREADY_PREMIUM on stale capture, got %v", err)
	}
	if e.provider.captures != captures {
		t.Error("Redundant premium capture must not reach the provider")
	}
	if got := e.status(t, stale.ID); got != OrderFailed {
		t.Errorf("Expected stale order FAILED, got %s", got)
	}

	total, err := e.ledger.TotalDonated(ctx, "u1")
	if err != nil || !total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected total 50, got %s, %v", total, err)
	}
}

func TestCapture_PartialPremiumProgressRecorded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(20), IsPremiumUpgrade: true,
	})
	result, err := e.service.Capture(ctx, first.OrderID)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if result.WasUpgraded || result.IsPremium {
		t.Errorf("Expected no upgrade below threshold, got %+v", result)
	}

	second := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(30), IsPremiumUpgrade: true,
	})
	result, err = e.service.Capture(ctx, second.OrderID)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !result.WasUpgraded {
		t.Errorf("Expected the crossing payment to report the upgrade, got %+v", result)
	}

	purchased, err := e.ledger.PremiumPurchased(ctx, "u1")
	if err != nil || !purchased {
		t.Errorf("Expected premium purchase recorded, got %v, %v", purchased, err)
	}
}

func TestCapture_SecondCaptureIsConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(10), ComponentID: "b",
	})
	if _, err := e.service.Capture(ctx, created.OrderID); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	_, err := e.service.Capture(ctx, created.OrderID)
	if !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict on replay, got %v", err)
	}

	d, err := e.ledger.GetDonation(ctx, "u1", "b")
	if err != nil || !d.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected a single 10 donation, got %v, %v", d, err)
	}
}

func TestCapture_TokenRejected(t *testing.T) {
	e := newEnv(t)
	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(10), ComponentID: "b",
	})

	e.provider.TokenFunc = func(context.Context) (string, error) {
		return "", paypal.ErrMissingCredentials
	}

	_, err := e.service.Capture(context.Background(), created.OrderID)
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("Expected ErrConfiguration, got %v", err)
	}
	if e.provider.captures != 0 {
		t.Error("Capture must not be attempted without a token")
	}
	if got := e.status(t, created.OrderID); got != OrderCreated {
		t.Errorf("Expected order left CREATED, got %s", got)
	}
	if n := e.donationRows(t); n != 0 {
		t.Errorf("Expected no donation rows, got %d", n)
	}
}

func TestCapture_ProviderAmountWins(t *testing.T) {
	e := newEnv(t)
	e.provider.CaptureFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
		return completed(orderID, "12.34"), nil
	}

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(15), ComponentID: "b",
	})
	result, err := e.service.Capture(context.Background(), created.OrderID)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !result.Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("Expected captured amount 12.34, got %s", result.Amount)
	}
}

func TestCapture_CurrencyMismatchFails(t *testing.T) {
	e := newEnv(t)
	e.provider.CaptureFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
		order := completed(orderID, "5.00")
		order.PurchaseUnits[0].Payments.Captures[0].Amount.CurrencyCode = "USD"
		return order, nil
	}

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "b",
	})

	_, err := e.service.Capture(context.Background(), created.OrderID)
	if !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("Expected currency mismatch, got %v", err)
	}
	if got := e.status(t, created.OrderID); got != OrderFailed {
		t.Errorf("Expected order FAILED, got %s", got)
	}
	if n := e.donationRows(t); n != 0 {
		t.Errorf("Expected no donation rows, got %d", n)
	}
}

func TestHandler_CreateOrderProviderFailure(t *testing.T) {
	e := newEnv(t)
	e.provider.CreateFunc = func(context.Context) (*paypal.Order, error) {
		return nil, fmt.Errorf("create order: %w", core.ErrUpstream)
	}

	h := NewHandler(e.service, RedirectURLs{})
	req := httptest.NewRequest(http.MethodPost, "/payment/create-order",
		strings.NewReader(`{"amount":"5.00","component_id":"a"}`))
	req = req.WithContext(middleware.WithUser(req.Context(), "u1", "user"))
	rec := httptest.NewRecorder()

	h.CreateOrder(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	var body core.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error == nil || body.Error.Code != "UPSTREAM_ERROR" {
		t.Errorf("Expected UPSTREAM_ERROR, got %+v", body.Error)
	}

	var orders int
	if err := e.db.Get(&orders, `SELECT COUNT(*) FROM payment_orders`); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 0 {
		t.Errorf("Expected no stored order, got %d", orders)
	}
}

func TestCapture_LedgerFailureRollsBackOrder(t *testing.T) {
	e := newEnv(t)
	e.provider.CaptureFunc = func(_ context.Context, orderID string) (*paypal.Order, error) {
		return completed(orderID, "-5.00"), nil
	}

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "b",
	})

	if _, err := e.service.Capture(context.Background(), created.OrderID); err == nil {
		t.Fatal("Expected ledger failure to surface")
	}
	if got := e.status(t, created.OrderID); got != OrderCreated {
		t.Errorf("Expected order status rolled back to CREATED, got %s", got)
	}
	if n := e.donationRows(t); n != 0 {
		t.Errorf("Expected no donation rows, got %d", n)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		req  CreateOrderRequest
		want error
	}{
		{"zero amount", CreateOrderRequest{Amount: decimal.Zero, ComponentID: "a"}, core.ErrInvalidInput},
		{"three decimals", CreateOrderRequest{Amount: decimal.RequireFromString("1.001"), ComponentID: "a"}, core.ErrInvalidInput},
		{"below minimum", CreateOrderRequest{Amount: decimal.RequireFromString("0.50"), ComponentID: "a"}, core.ErrInvalidInput},
		{"above maximum", CreateOrderRequest{Amount: decimal.NewFromInt(20000), ComponentID: "a"}, core.ErrInvalidInput},
		{"missing component", CreateOrderRequest{Amount: decimal.NewFromInt(5)}, core.ErrInvalidInput},
		{"unknown component", CreateOrderRequest{Amount: decimal.NewFromInt(5), ComponentID: "zzz"}, core.ErrNotFound},
		{"reserved component", CreateOrderRequest{Amount: decimal.NewFromInt(5), ComponentID: "premium-access"}, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.service.CreateOrder(context.Background(), "u1", tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if e.provider.creates != 0 {
		t.Errorf("Invalid orders must not reach the provider, got %d", e.provider.creates)
	}
}

func TestCreateOrder_RateLimited(t *testing.T) {
	e := newEnv(t)
	e.limiter.allow = false

	_, err := e.service.CreateOrder(context.Background(), "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "a",
	})
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "a",
	})

	if _, err := e.service.Cancel(ctx, created.OrderID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got := e.status(t, created.OrderID); got != OrderCancelled {
		t.Errorf("Expected CANCELLED, got %s", got)
	}

	if _, err := e.service.Capture(ctx, created.OrderID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict capturing a cancelled order, got %v", err)
	}
	if _, err := e.service.Cancel(ctx, created.OrderID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict cancelling twice, got %v", err)
	}
	if n := e.donationRows(t); n != 0 {
		t.Errorf("Expected no donation rows, got %d", n)
	}
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "a",
	})

	resp, err := e.service.GetOrder(ctx, "u1", created.OrderID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if resp.Status != OrderCreated || resp.ProviderStatus != paypal.StatusApproved {
		t.Errorf("Unexpected order response %+v", resp)
	}

	if _, err := e.service.GetOrder(ctx, "u2", created.OrderID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected other users to get not found, got %v", err)
	}
}

func TestHandler_CaptureRedirects(t *testing.T) {
	e := newEnv(t)

	r := chi.NewRouter()
	NewHandler(e.service, RedirectURLs{
		Success: "http://web.test/payment/success",
		Cancel:  "http://web.test/payment/cancel",
		Error:   "http://web.test/payment/error",
	}).RegisterRoutes(r, middleware.Authenticator(nil))

	ok := e.createOrder(t, "u1", CreateOrderRequest{
		Amount: decimal.NewFromInt(50), IsPremiumUpgrade: true,
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/capture-order?token="+ok.OrderID, nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/payment/success" || loc.Query().Get("upgraded") != "true" {
		t.Errorf("Unexpected success redirect %s", loc)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/capture-order?token=missing", nil))
	loc, _ = url.Parse(rec.Header().Get("Location"))
	if rec.Code != http.StatusFound || loc.Path != "/payment/error" || loc.Query().Get("message") == "" {
		t.Errorf("Expected error redirect with message, got %d %s", rec.Code, loc)
	}

	cancelled := e.createOrder(t, "u2", CreateOrderRequest{
		Amount: decimal.NewFromInt(5), ComponentID: "a",
	})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payment/cancel-order?token="+cancelled.OrderID, nil))
	loc, _ = url.Parse(rec.Header().Get("Location"))
	if loc.Path != "/payment/cancel" {
		t.Errorf("Expected cancel redirect, got %s", loc)
	}
}

func TestRepository_TransitionsOnlyFromCreated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2", "o3"} {
		if err := e.orders.Create(ctx, &Order{
			ID: id, UserID: "u1", Purpose: PurposePremium,
			Amount: decimal.NewFromInt(5), Currency: "MXN",
		}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	if err := e.orders.Create(ctx, &Order{
		ID: "o1", UserID: "u1", Purpose: PurposePremium,
		Amount: decimal.NewFromInt(5), Currency: "MXN",
	}); !errors.Is(err, core.ErrDuplicateKey) {
		t.Errorf("Expected duplicate order id rejected, got %v", err)
	}

	if err := e.orders.MarkCaptured(ctx, "o1", "CAP-1", decimal.NewFromInt(5)); err != nil {
		t.Fatalf("MarkCaptured failed: %v", err)
	}
	if err := e.orders.MarkFailed(ctx, "o2", "declined"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	if err := e.orders.MarkCaptured(ctx, "o1", "CAP-1", decimal.NewFromInt(5)); !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict re-capturing, got %v", err)
	}
	if err := e.orders.MarkCancelled(ctx, "o2"); !errors.Is(err, core.ErrConflict) {
		t.Errorf("Expected conflict cancelling a failed order, got %v", err)
	}
	if err := e.orders.MarkFailed(ctx, "missing", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}

	counts, err := e.orders.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[OrderCaptured] != 1 || counts[OrderFailed] != 1 || counts[OrderCreated] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}

	o, err := e.orders.GetByID(ctx, "o1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if o.CaptureID == nil || *o.CaptureID != "CAP-1" {
		t.Errorf("Expected capture id stored, got %v", o.CaptureID)
	}
}

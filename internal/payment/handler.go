// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/middleware"
)

// RedirectURLs are the static pages the payer lands on after the
// provider sends them back.
type RedirectURLs struct {
	Success string
	Cancel  string
	Error   string
}

type Handler struct {
	service   *Service
	redirects RedirectURLs
	validator *validator.Validate
}

func NewHandler(service *Service, redirects RedirectURLs) *Handler {
	return &Handler{
		service:   service,
		redirects: redirects,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payment", func(r chi.Router) {
		r.Get("/pricing-info", h.PricingInfo)

		// the provider redirects the payer here; the order token is the key
		r.Get("/capture-order", h.CaptureOrder)
		r.Get("/cancel-order", h.CancelOrder)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/create-order", h.CreateOrder)
			r.Get("/orders/{orderID}", h.GetOrder)
		})
	})
}

func (h *Handler) PricingInfo(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.service.Pricing())
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	result, err := h.service.Capture(r.Context(), token)
	if err != nil {
		slog.WarnContext(r.Context(), "capture redirecting to error page",
			"order_id", token,
			"error", err,
		)
		h.redirect(w, r, h.redirects.Error, url.Values{
			"message":  {captureErrorMessage(err)},
			"order_id": {token},
		})
		return
	}

	h.redirect(w, r, h.redirects.Success, url.Values{
		"order_id": {result.OrderID},
		"upgraded": {strconv.FormatBool(result.WasUpgraded)},
		"premium":  {strconv.FormatBool(result.IsPremium)},
	})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	if _, err := h.service.Cancel(r.Context(), token); err != nil {
		h.redirect(w, r, h.redirects.Error, url.Values{
			"message":  {captureErrorMessage(err)},
			"order_id": {token},
		})
		return
	}

	h.redirect(w, r, h.redirects.Cancel, url.Values{"order_id": {token}})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	resp, err := h.service.GetOrder(r.Context(), middleware.GetUserID(r.Context()), orderID)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) redirect(
	w http.ResponseWriter,
	r *http.Request,
	target string,
	params url.Values,
) {
	u, err := url.Parse(target)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
}

// captureErrorMessage is shown to the payer, so it never carries provider
// internals.
func captureErrorMessage(err error) string {
	if errors.Is(err, ErrNotCompleted) {
		return "payment was not completed"
	}
	if errors.Is(err, ErrCurrencyMismatch) {
		return "payment currency did not match the order"
	}
	if appErr := core.ToAppError(err); appErr != nil {
		return appErr.Message
	}
	return "payment could not be processed"
}

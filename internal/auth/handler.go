// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes mounts the credential endpoints. Login and register are
// public; /auth/me echoes the identity the bearer token was minted for.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/me", h.GetMe)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		core.WriteError(w, credentialError(err))
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.WriteError(w, credentialError(err))
		return
	}

	core.Created(w, resp)
}

// GetMe returns the stored account next to the role and token version the
// presented token carries. The authenticator has already rejected tokens
// older than the stored version.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.GetCurrentUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	me := MeResponse{User: *resp}
	if claims := middleware.GetClaims(ctx); claims != nil {
		me.TokenRole = claims.Role
		me.TokenVersion = claims.TokenVersion
	}

	core.OK(w, me)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

// credentialError keeps unknown-email and wrong-password failures
// indistinguishable to the caller.
func credentialError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return core.UnauthorizedError("invalid email or password")
	case errors.Is(err, ErrEmailExists):
		return core.DuplicateError("email")
	default:
		return err
	}
}

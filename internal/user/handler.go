// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// RegisterAdminRoutes mounts operator user management. Role changes and
// explicit revocation both bump token_version, which signs the user out.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Put("/{userID}/role", h.UpdateUserRole)
		r.Post("/{userID}/revoke-tokens", h.RevokeTokens)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	}
	if params.Role != "" && params.Role != RoleUser && params.Role != RoleAdmin {
		core.BadRequest(w, "role must be one of: user admin")
		return
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	// An admin demoting themselves could leave nobody able to promote.
	if userID == middleware.GetUserID(ctx) {
		core.WriteError(w, core.ConflictError("admins cannot change their own role"))
		return
	}

	before, err := h.service.TokenVersion(ctx, userID)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	user, err := h.service.UpdateUserRole(ctx, userID, req.Role)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, TokenStateResponse{
		User:          ToUserResponse(user),
		TokenVersion:  user.TokenVersion,
		TokensRevoked: user.TokenVersion != before,
	})
}

func (h *Handler) RevokeTokens(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.RevokeTokens(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, TokenStateResponse{
		User:          ToUserResponse(user),
		TokenVersion:  user.TokenVersion,
		TokensRevoked: true,
	})
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

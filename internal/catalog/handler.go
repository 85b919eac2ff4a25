// AngelaMos | 2026
// handler.go

package catalog

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
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/components", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)

			r.Get("/", h.List)
			r.Get("/search", h.Search)
			r.Get("/type/{type}", h.ListByType)
			r.Get("/{componentID}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Create)
			r.Get("/user/access-info", h.AccessInfo)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	params.Type = r.URL.Query().Get("type")

	h.writePage(w, params, func() ([]ComponentResponse, int, error) {
		return h.service.List(r.Context(), middleware.GetUserID(r.Context()), params)
	})
}

func (h *Handler) ListByType(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	params.Type = chi.URLParam(r, "type")

	h.writePage(w, params, func() ([]ComponentResponse, int, error) {
		return h.service.List(r.Context(), middleware.GetUserID(r.Context()), params)
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	term := r.URL.Query().Get("q")

	h.writePage(w, params, func() ([]ComponentResponse, int, error) {
		return h.service.Search(
			r.Context(),
			middleware.GetUserID(r.Context()),
			term,
			params,
		)
	})
}

func (h *Handler) writePage(
	w http.ResponseWriter,
	params ListParams,
	fetch func() ([]ComponentResponse, int, error),
) {
	items, total, err := fetch()
	if err != nil {
		core.WriteError(w, err)
		return
	}

	params.Normalize()
	core.Paginated(w, items, params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "componentID")

	component, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, component)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	component, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.Created(w, component)
}

func (h *Handler) AccessInfo(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AccessInfo(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, summary)
}

func listParams(r *http.Request) ListParams {
	return ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
	}
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

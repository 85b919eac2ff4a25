// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
)

type Service struct {
	repo      Repository
	evaluator *entitlement.Evaluator
	types     map[string]struct{}
	typeList  string
}

func NewService(
	repo Repository,
	evaluator *entitlement.Evaluator,
	componentTypes []string,
) *Service {
	types := make(map[string]struct{}, len(componentTypes))
	for _, t := range componentTypes {
		types[t] = struct{}{}
	}

	return &Service{
		repo:      repo,
		evaluator: evaluator,
		types:     types,
		typeList:  strings.Join(componentTypes, " "),
	}
}

// routeSegments are static path segments under /components. A component
// with one of these ids could never be fetched by id.
var routeSegments = map[string]struct{}{
	"search": {},
	"type":   {},
	"user":   {},
}

func (s *Service) reservedID(id string) bool {
	if _, ok := routeSegments[id]; ok {
		return true
	}
	return s.evaluator.Policy().IsReserved(id)
}

func ReservedIDError() *core.AppError {
	return core.NewAppError(
		core.ErrInvalidInput,
		"component id is reserved",
		http.StatusBadRequest,
		"RESERVED_ID",
	)
}

func (s *Service) validType(t string) bool {
	_, ok := s.types[t]
	return ok
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateComponentRequest,
) (ComponentResponse, error) {
	if s.reservedID(req.ID) {
		return ComponentResponse{}, ReservedIDError()
	}

	if !s.validType(req.Type) {
		return ComponentResponse{}, core.ValidationError(
			"type must be one of: " + s.typeList,
		)
	}

	c := &Component{
		ID:        req.ID,
		Name:      req.Name,
		Type:      req.Type,
		Code:      req.Code,
		ExtraCode: req.ExtraCode,
	}
	if userID != "" {
		c.CreatedBy = &userID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return ComponentResponse{}, core.DuplicateError("component id")
		}
		return ComponentResponse{}, err
	}

	access, err := s.evaluator.CheckAccess(ctx, userID, c.ID)
	if err != nil {
		return ComponentResponse{}, err
	}

	return Redact(c, access), nil
}

// Get returns the full component or an ACCESS_DENIED error carrying the
// non-sensitive fields and the premium offer.
func (s *Service) Get(
	ctx context.Context,
	userID, id string,
) (ComponentResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ComponentResponse{}, err
	}

	access, err := s.evaluator.CheckAccess(ctx, userID, c.ID)
	if err != nil {
		return ComponentResponse{}, err
	}

	if !access.Granted() {
		msg := "donate to this component or upgrade to premium to view its code"
		if userID == "" {
			msg = "sign in to view this component's code"
		}
		return ComponentResponse{}, core.AccessDeniedError(msg, AccessDeniedDetails{
			Component: summarize(c),
			Access:    access,
			Pricing:   s.evaluator.Policy().Pricing(),
		})
	}

	return Redact(c, access), nil
}

func (s *Service) List(
	ctx context.Context,
	userID string,
	params ListParams,
) ([]ComponentResponse, int, error) {
	if params.Type != "" && !s.validType(params.Type) {
		return nil, 0, core.ValidationError("type must be one of: " + s.typeList)
	}

	components, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	return s.redactPage(ctx, userID, components, total)
}

func (s *Service) Search(
	ctx context.Context,
	userID, term string,
	params ListParams,
) ([]ComponentResponse, int, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, 0, core.ValidationError("q is required")
	}

	components, total, err := s.repo.Search(ctx, term, params)
	if err != nil {
		return nil, 0, err
	}

	return s.redactPage(ctx, userID, components, total)
}

func (s *Service) redactPage(
	ctx context.Context,
	userID string,
	components []Component,
	total int,
) ([]ComponentResponse, int, error) {
	ent, err := s.evaluator.Snapshot(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("entitlement snapshot: %w", err)
	}

	return RedactAll(components, ent), total, nil
}

func (s *Service) AccessInfo(
	ctx context.Context,
	userID string,
) (*entitlement.AccountSummary, error) {
	return s.evaluator.Summary(ctx, userID)
}

// AngelaMos | 2026
// errors.go

package paypal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/carterperez-dev/component-store/internal/core"
)

var ErrMissingCredentials = fmt.Errorf(
	"paypal client id and secret are not set: %w", core.ErrConfiguration,
)

// APIError is a non-2xx response from the REST API.
type APIError struct {
	StatusCode int           `json:"-"`
	Name       string        `json:"name"`
	Message    string        `json:"message"`
	DebugID    string        `json:"debug_id"`
	Details    []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Issue       string `json:"issue"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("paypal api %d %s: %s", e.StatusCode, e.Name, e.Message)
	if e.DebugID != "" {
		msg += " (debug_id " + e.DebugID + ")"
	}
	return msg
}

// Unwrap classifies the failure. Rejected credentials are a configuration
// problem; everything else is an upstream failure.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return core.ErrConfiguration
	}
	return core.ErrUpstream
}

// Issue returns the first detail issue code, e.g. ORDER_NOT_APPROVED.
func (e *APIError) Issue() string {
	if len(e.Details) > 0 {
		return e.Details[0].Issue
	}
	return ""
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

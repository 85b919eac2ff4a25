// AngelaMos | 2026
// client.go

package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/carterperez-dev/component-store/internal/config"
	"github.com/carterperez-dev/component-store/internal/core"
)

const maxResponseBytes = 1 << 20

// Client talks to the Orders v2 REST API. It does not cache access tokens;
// callers acquire one per payment attempt.
type Client struct {
	baseURL    string
	brandName  string
	creds      *clientcredentials.Config
	httpClient *http.Client
}

func NewClient(cfg config.PayPalConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		brandName:  cfg.BrandName,
		httpClient: &http.Client{Timeout: timeout},
	}

	if cfg.HasCredentials() {
		c.creds = &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     baseURL + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}

	return c
}

func (c *Client) BrandName() string {
	return c.brandName
}

// Token exchanges the client credentials for a bearer token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.creds == nil {
		return "", ErrMissingCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.creds.Token(ctx)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			if rErr.Response.StatusCode < http.StatusInternalServerError {
				return "", fmt.Errorf("paypal token: credentials rejected (%d): %w",
					rErr.Response.StatusCode, core.ErrConfiguration)
			}
		}
		return "", fmt.Errorf("paypal token: %v: %w", err, core.ErrUpstream)
	}

	return tok.AccessToken, nil
}

func (c *Client) CreateOrder(
	ctx context.Context,
	accessToken string,
	req CreateOrderRequest,
) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", accessToken, req, &order); err != nil {
		return nil, fmt.Errorf("paypal create order: %w", err)
	}
	return &order, nil
}

func (c *Client) CaptureOrder(
	ctx context.Context,
	accessToken, orderID string,
) (*Order, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"

	var order Order
	if err := c.do(ctx, http.MethodPost, path, accessToken, struct{}{}, &order); err != nil {
		return nil, fmt.Errorf("paypal capture order: %w", err)
	}
	return &order, nil
}

func (c *Client) GetOrder(
	ctx context.Context,
	accessToken, orderID string,
) (*Order, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID)

	var order Order
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &order); err != nil {
		return nil, fmt.Errorf("paypal get order: %w", err)
	}
	return &order, nil
}

func (c *Client) do(
	ctx context.Context,
	method, path, accessToken string,
	body, out any,
) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %v: %w", err, core.ErrUpstream)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read body: %v: %w", err, core.ErrUpstream)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Name == "" {
			apiErr.Name = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal: %v: %w", err, core.ErrUpstream)
	}

	return nil
}

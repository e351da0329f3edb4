// Package client talks to the GreenCart HTTP API on behalf of one signed-in
// shopper. It implements the remote side of cartstore.Store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"greencart/internal/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const (
	defaultMaxRetries = 3
	maxResponseBytes  = 4 << 20
)

// Client is an authenticated API client.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	maxRetries uint64
	backoff    func() backoff.BackOff
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMaxRetries bounds retries of idempotent reads. Zero disables retrying.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackOff sets the retry schedule for idempotent reads.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = f }
}

// New creates a client for the API at baseURL using the bearer token.
func New(baseURL, token string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		http:       cleanhttp.DefaultPooledClient(),
		maxRetries: defaultMaxRetries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
		logger: logger.With().Str("component", "api_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cartResponse struct {
	Success   bool       `json:"success"`
	CartItems model.Cart `json:"cartItems"`
}

// Get fetches the stored cart.
func (c *Client) Get(ctx context.Context) (model.Cart, error) {
	var resp cartResponse
	if err := c.read(ctx, "/api/cart/get", &resp); err != nil {
		return nil, err
	}
	if resp.CartItems == nil {
		return model.Cart{}, nil
	}
	return resp.CartItems, nil
}

// Replace overwrites the stored cart.
func (c *Client) Replace(ctx context.Context, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	var resp cartResponse
	return c.do(ctx, http.MethodPost, "/api/cart/update", model.CartRequest{CartItems: cart}, &resp)
}

type placeResponse struct {
	Success bool         `json:"success"`
	URL     string       `json:"url"`
	Data    *model.Order `json:"data"`
}

// PlaceOrder submits a checkout request for the given payment mode.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest, paymentType model.PaymentType) (*model.PlacedOrder, error) {
	var path string
	switch paymentType {
	case model.PaymentCOD:
		path = "/api/order/cod"
	case model.PaymentOnline:
		path = "/api/order/stripe"
	default:
		return nil, model.ErrValidation.WithMessage("unknown payment type " + string(paymentType))
	}

	var resp placeResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if paymentType == model.PaymentOnline && resp.URL == "" {
		return nil, model.ErrExternalGateway.WithMessage("payment session has no redirect url")
	}
	return &model.PlacedOrder{Order: resp.Data, URL: resp.URL}, nil
}

type productsResponse struct {
	Success  bool            `json:"success"`
	Products []model.Product `json:"products"`
}

// Products fetches the catalogue.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	var resp productsResponse
	if err := c.read(ctx, "/api/product/list", &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Catalog fetches the catalogue indexed by product id.
func (c *Client) Catalog(ctx context.Context) (model.Catalog, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewCatalog(products), nil
}

// read performs an idempotent GET, retrying transient failures.
func (c *Client) read(ctx context.Context, path string, out interface{}) error {
	var b backoff.BackOff = c.backoff()
	if c.maxRetries > 0 {
		b = backoff.WithMaxRetries(b, c.maxRetries)
	} else {
		b = &backoff.StopBackOff{}
	}
	b = backoff.WithContext(b, ctx)

	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug().Err(err).Str("path", path).Dur("wait", wait).Msg("retrying request")
	}
	return backoff.RetryNotify(op, b, notify)
}

func retryable(err error) bool {
	switch model.CodeOf(err) {
	case model.ErrCodeTransientStorage, model.ErrCodeExternalGateway, model.ErrCodeInternalError:
		return true
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ErrTransientStorage.Wrap("Request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.ErrTransientStorage.Wrap("Failed to read response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error envelope back into a domain error. Responses
// without an envelope are classified by status.
func decodeError(status int, payload []byte) error {
	var env model.ErrorResponse
	if err := json.Unmarshal(payload, &env); err == nil && env.Code != "" {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return model.NewDomainError(env.Code, msg)
	}

	msg := http.StatusText(status)
	switch {
	case status == http.StatusUnauthorized:
		return model.ErrAuthRequired.WithMessage(msg)
	case status == http.StatusNotFound:
		return model.ErrNotFound.WithMessage(msg)
	case status == http.StatusServiceUnavailable:
		return model.ErrTransientStorage.WithMessage(msg)
	case status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		return model.ErrExternalGateway.WithMessage(msg)
	case status >= http.StatusInternalServerError:
		return model.NewDomainError(model.ErrCodeInternalError, msg)
	default:
		return model.ErrValidation.WithMessage(msg)
	}
}

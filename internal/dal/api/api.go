package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/order"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tokenCookie = "jwt_token"

// Client talks to the restaurant order API.
type Client struct {
	baseURL string
	http    *http.Client
}

// option is a function that configures the Client.
type option func(*Client)

// MustNewClient creates a new order API client from the api.* configuration.
func MustNewClient(opts ...option) *Client {
	timeout := viper.GetInt("api.timeout_seconds")
	if timeout == 0 {
		timeout = 10
	}

	c := &Client{
		baseURL: viper.GetString("api.base_url"),
		http:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL == "" {
		panic("api.base_url is not set in config")
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	return c
}

// WithBaseURL overrides api.base_url.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the underlying HTTP client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHTTPClient(hc *http.Client) option {
	return func(c *Client) {
		c.http = hc
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a session token. The token is read from
// the response body, or from the jwt_token cookie when the body has none.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx, span := otel.Tracer("api-client").Start(ctx, "Client.Login")
	defer span.End()

	resp, err := c.do(ctx, http.MethodPost, "/login", "", loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to login: %w", err)
	}
	defer resp.Body.Close()

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to decode login response: %w: %w", errs.ErrTransient, err)
	}
	if body.Token != "" {
		return body.Token, nil
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == tokenCookie && ck.Value != "" {
			return ck.Value, nil
		}
	}

	return "", fmt.Errorf("failed to login: %w: response carries no token", errs.ErrTransient)
}

// PendingOrders returns the orders the API considers pending. The body may
// be a bare array or an object with an "orders" array. Orders that fail to
// decode are logged and left out.
func (c *Client) PendingOrders(ctx context.Context, token string) ([]order.Order, error) {
	ctx, span := otel.Tracer("api-client").Start(ctx, "Client.PendingOrders")
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, "/pending-orders", token, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending orders: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending orders: %w: %w", errs.ErrTransient, err)
	}
	raw = bytes.TrimSpace(raw)

	var list []json.RawMessage
	switch {
	case len(raw) == 0 || string(raw) == "null":
	case raw[0] == '[':
		err = json.Unmarshal(raw, &list)
	default:
		var wrapped struct {
			Orders []json.RawMessage `json:"orders"`
		}
		err = json.Unmarshal(raw, &wrapped)
		list = wrapped.Orders
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode pending orders: %w: %w", errs.ErrTransient, err)
	}

	orders := make([]order.Order, 0, len(list))
	for i, item := range list {
		var o order.Order
		if err := json.Unmarshal(item, &o); err != nil {
			slog.Warn("Skipping malformed order", "index", i, "error", err)
			span.AddEvent("malformed order", trace.WithAttributes(attribute.Int("index", i)))
			continue
		}
		orders = append(orders, o)
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))

	return orders, nil
}

type printStatusRequest struct {
	OrderID     order.ID `json:"order_id"`
	PrintStatus string   `json:"print_status"`
}

// MarkPrinted acknowledges that the order has been printed.
func (c *Client) MarkPrinted(ctx context.Context, token string, id order.ID) error {
	ctx, span := otel.Tracer("api-client").Start(ctx, "Client.MarkPrinted")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id.String()))

	resp, err := c.do(ctx, http.MethodPost, "/update-print-status", token, printStatusRequest{
		OrderID:     id,
		PrintStatus: "printed",
	})
	if err != nil {
		return fmt.Errorf("failed to update print status of order %s: %w", id, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return nil
}

// do sends the request and classifies failures: 401 and 403 wrap
// errs.ErrAuth, everything else that is not a 2xx wraps errs.ErrTransient.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s returned %d", errs.ErrAuth, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s returned %d", errs.ErrTransient, method, path, resp.StatusCode)
	}

	return resp, nil
}

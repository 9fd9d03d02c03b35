// Package upstream implements the HTTP client and registry for the merchant
// order systems the scanner resolves orders against.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chafiq1992/order-scanner/internal/domain/upstream"
)

// maxResponseSize is the maximum allowed response size from a store API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const apiVersion = "2023-07"

// HTTPStoreClient implements upstream.StoreClient against the merchant admin
// REST API using HTTP Basic auth built from the store credentials.
type HTTPStoreClient struct {
	httpClient *http.Client
	scheme     string
	logger     *zap.Logger
}

// HTTPStoreClientOption is a functional option for configuring the client
type HTTPStoreClientOption func(*HTTPStoreClient)

// WithTimeout sets the per-call request budget.
func WithTimeout(timeout time.Duration) HTTPStoreClientOption {
	return func(c *HTTPStoreClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithScheme overrides the URL scheme. Tests point the client at a plain
// HTTP test server.
func WithScheme(scheme string) HTTPStoreClientOption {
	return func(c *HTTPStoreClient) {
		c.scheme = scheme
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *zap.Logger) HTTPStoreClientOption {
	return func(c *HTTPStoreClient) {
		c.logger = logger
	}
}

// NewHTTPStoreClient creates a store client with a 15s default per-call
// timeout.
func NewHTTPStoreClient(opts ...HTTPStoreClientOption) *HTTPStoreClient {
	c := &HTTPStoreClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		scheme:     "https",
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ordersResponse mirrors the store API orders envelope.
type ordersResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	Tags                string          `json:"tags"`
	FulfillmentStatus   *string         `json:"fulfillment_status"`
	CreatedAt           time.Time       `json:"created_at"`
	CancelledAt         *string         `json:"cancelled_at"`
	Phone               string          `json:"phone"`
	TotalPrice          string          `json:"total_price"`
	Gateway             string          `json:"gateway"`
	PaymentGatewayNames []string        `json:"payment_gateway_names"`
	ShippingAddress     *addressPayload `json:"shipping_address"`
	BillingAddress      *addressPayload `json:"billing_address"`
	Customer            *customerPayload `json:"customer"`
}

type addressPayload struct {
	Phone string `json:"phone"`
}

type customerPayload struct {
	Phone          string          `json:"phone"`
	DefaultAddress *addressPayload `json:"default_address"`
}

type countResponse struct {
	Count int `json:"count"`
}

// LookupOrder fetches the order with the given canonical name from one store.
// An empty orders array means the store has no such order: Found=false, nil
// error. Non-200 responses are errors so the caller can retry.
func (c *HTTPStoreClient) LookupOrder(ctx context.Context, store upstream.StoreConfig, orderName string) (upstream.OrderLookupResult, error) {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("name", orderName)

	body, err := c.get(ctx, store, "/orders.json", q)
	if err != nil {
		return upstream.OrderLookupResult{}, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return upstream.OrderLookupResult{}, fmt.Errorf("%w: %v", upstream.ErrStoreInvalidResponse, err)
	}

	if len(resp.Orders) == 0 {
		return upstream.OrderLookupResult{Found: false}, nil
	}
	return toLookupResult(store, resp.Orders[0]), nil
}

// CountFulfilled returns the number of fulfilled orders created in
// [start, end] on the given store.
func (c *HTTPStoreClient) CountFulfilled(ctx context.Context, store upstream.StoreConfig, start, end time.Time) (int, error) {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("fulfillment_status", "shipped")
	q.Set("created_at_min", start.UTC().Format(time.RFC3339))
	q.Set("created_at_max", end.UTC().Format(time.RFC3339))

	body, err := c.get(ctx, store, "/orders/count.json", q)
	if err != nil {
		return 0, err
	}

	var resp countResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", upstream.ErrStoreInvalidResponse, err)
	}
	return resp.Count, nil
}

// get performs one authenticated request against a store endpoint.
func (c *HTTPStoreClient) get(ctx context.Context, store upstream.StoreConfig, path string, q url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s://%s/admin/api/%s%s?%s", c.scheme, store.Domain, apiVersion, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build store request: %w", err)
	}
	req.SetBasicAuth(store.APIKey, store.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", upstream.ErrStoreRequestFailed, store.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s responded %d", upstream.ErrStoreRequestFailed, store.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", upstream.ErrStoreInvalidResponse, store.Name, err)
	}
	return body, nil
}

// toLookupResult normalizes one raw order payload.
func toLookupResult(store upstream.StoreConfig, o orderPayload) upstream.OrderLookupResult {
	fulfillment := upstream.FulfillmentUnfulfilled
	if o.FulfillmentStatus != nil && strings.EqualFold(*o.FulfillmentStatus, "fulfilled") {
		fulfillment = upstream.FulfillmentFulfilled
	}

	total := decimal.Zero
	if o.TotalPrice != "" {
		if d, err := decimal.NewFromString(o.TotalPrice); err == nil {
			total = d
		}
	}

	// Phone precedence: order, shipping address, billing address, customer,
	// customer default address. First value that normalizes non-empty wins.
	candidates := []string{o.Phone}
	if o.ShippingAddress != nil {
		candidates = append(candidates, o.ShippingAddress.Phone)
	}
	if o.BillingAddress != nil {
		candidates = append(candidates, o.BillingAddress.Phone)
	}
	if o.Customer != nil {
		candidates = append(candidates, o.Customer.Phone)
		if o.Customer.DefaultAddress != nil {
			candidates = append(candidates, o.Customer.DefaultAddress.Phone)
		}
	}

	return upstream.OrderLookupResult{
		Found:          true,
		Tags:           o.Tags,
		Fulfillment:    fulfillment,
		Cancelled:      o.CancelledAt != nil && *o.CancelledAt != "",
		StoreName:      store.Name,
		Phone:          upstream.FirstPhone(candidates...),
		CreatedAt:      o.CreatedAt,
		TotalPrice:     total,
		CashOnDelivery: isCashOnDelivery(o),
	}
}

// isCashOnDelivery recognizes the cash-on-delivery gateway spellings the
// stores use.
func isCashOnDelivery(o orderPayload) bool {
	names := append([]string{o.Gateway}, o.PaymentGatewayNames...)
	for _, n := range names {
		n = strings.ToLower(n)
		if n == "cod" || strings.Contains(n, "cash on delivery") || strings.Contains(n, "cash_on_delivery") {
			return true
		}
	}
	return false
}

// Ensure HTTPStoreClient implements StoreClient
var _ upstream.StoreClient = (*HTTPStoreClient)(nil)

package productapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/price-predictor/internal/domain/catalog"
)

const defaultBaseURL = "https://fakestoreapi.com/products"

// Client fetches product listings from a public JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the product list. params are merged into the URL query.
func (c *Client) Fetch(ctx context.Context, params url.Values) ([]catalog.Product, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse product api url: %w", err)
	}
	if len(params) > 0 {
		query := endpoint.Query()
		for key, values := range params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build product request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("product request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read product response: %w", err)
	}
	return decodeProducts(body)
}

// decodeProducts accepts a bare array or an object with a "products" array. Any other shape
// yields no products; array entries that are not objects are skipped.
func decodeProducts(body []byte) ([]catalog.Product, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		items, _ = v["products"].([]any)
	}

	products := make([]catalog.Product, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			products = append(products, catalog.Product(obj))
		}
	}
	return products, nil
}

var _ catalog.Fetcher = (*Client)(nil)

package shopapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Client represents a shop API client. A Client is safe for concurrent use;
// WithToken returns a copy bound to one user's access token.
type Client struct {
	config     Config
	httpClient *http.Client
	token      string
}

// NewClient creates a new shop API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// WithToken returns a client that sends "Authorization: Bearer <token>".
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Token returns the bearer token bound to this client, if any.
func (c *Client) Token() string {
	return c.token
}

// Cart

func (c *Client) ListCart(ctx context.Context) ([]model.ServerCartItem, error) {
	var items []model.ServerCartItem
	if err := c.getList(ctx, "/cart/", &items); err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

func (c *Client) AddCartItem(ctx context.Context, productID uint, quantity int) error {
	body := cartItemRequest{Product: productID, Quantity: quantity}
	if _, err := c.doRequest(ctx, http.MethodPost, "/cart/", body); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID uint, quantity int) error {
	path := fmt.Sprintf("/cart/%d/", itemID)
	if _, err := c.doRequest(ctx, http.MethodPatch, path, quantityRequest{Quantity: quantity}); err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (c *Client) DeleteCartItem(ctx context.Context, itemID uint) error {
	path := fmt.Sprintf("/cart/%d/", itemID)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// Catalog

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.getList(ctx, "/products/", &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d/", id), &product); err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/products/", in)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return decodeProduct(resp)
}

func (c *Client) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*model.Product, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/products/%d/", id), in)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return decodeProduct(resp)
}

func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/products/%d/", id), nil); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.getList(ctx, "/categories/", &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Account

// ObtainToken exchanges credentials for an access/refresh pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*model.TokenPair, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/token/", loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var pair model.TokenPair
	if err := json.Unmarshal(resp, &pair); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	return &pair, nil
}

// CurrentUser returns the user owning the bound token.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, "/user/", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if user.Type == "" {
		user.Type = user.Role
	}
	return &user, nil
}

// Checkout

func (c *Client) CreateBillingAddress(ctx context.Context, address model.BillingAddress) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/billing-addresses/", address); err != nil {
		return fmt.Errorf("failed to create billing address: %w", err)
	}
	return nil
}

func (c *Client) ListCountries(ctx context.Context) ([]model.Country, error) {
	var countries []model.Country
	if err := c.getList(ctx, "/countries/", &countries); err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

func decodeProduct(body []byte) (*model.Product, error) {
	var product model.Product
	if len(bytes.TrimSpace(body)) == 0 {
		return &product, nil
	}
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// getList accepts both a bare JSON array and a paginated {"results": [...]} envelope.
func (c *Client) getList(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(resp)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
		trimmed = page.Results
	}
	if len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request to the shop API and returns the raw body of a 2xx response.
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Shop API request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("Shop API request", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	return body, nil
}

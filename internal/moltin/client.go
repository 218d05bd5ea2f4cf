package moltin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/b10t/fish-shop/core/logger"
)

// ClientOptions configures NewClient.
type ClientOptions struct {
	BaseURL string
	Tokens  *TokenSource
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// FallbackImage is returned by ImageURL when resolution fails.
	FallbackImage string
}

// Client performs authorized calls against the commerce API, attaching the
// current token from its TokenSource to every request.
type Client struct {
	baseURL       string
	tokens        *TokenSource
	http          *http.Client
	fallbackImage string
}

// NewClient builds a commerce client around a token source.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		tokens:        opts.Tokens,
		http:          httpClient,
		fallbackImage: opts.FallbackImage,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("moltin: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("moltin: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("moltin: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("moltin: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("moltin: decode %s %s: %w", method, path, err)
	}
	return nil
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var env envelope[[]Product]
	if err := c.do(ctx, http.MethodGet, "/v2/products", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetProduct fetches one product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var env envelope[Product]
	if err := c.do(ctx, http.MethodGet, "/v2/products/"+url.PathEscape(id), nil, &env); err != nil {
		return Product{}, err
	}
	return env.Data, nil
}

// GetOrCreateCart fetches the cart referenced by the user id, creating it
// with a derived display name when the remote reports it absent. Safe to
// call repeatedly: the second call returns the same cart.
func (c *Client) GetOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	var env envelope[Cart]
	err := c.do(ctx, http.MethodGet, "/v2/carts/"+url.PathEscape(userID), nil, &env)
	if err == nil {
		return env.Data, nil
	}
	if !IsStatus(err, http.StatusNotFound) {
		return Cart{}, err
	}

	payload := envelope[Cart]{Data: Cart{ID: userID, Name: "Cart for " + userID}}
	if err := c.do(ctx, http.MethodPost, "/v2/carts", payload, &env); err != nil {
		return Cart{}, err
	}
	return env.Data, nil
}

// AddCartItem appends or increments a line item. Quantity must be positive.
func (c *Client) AddCartItem(ctx context.Context, userID, productID string, quantity int) ([]CartItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("moltin: quantity must be positive, got %d", quantity)
	}
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	var env envelope[[]CartItem]
	path := "/v2/carts/" + url.PathEscape(userID) + "/items"
	if err := c.do(ctx, http.MethodPost, path, payload, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// RemoveCartItem deletes one line item and returns the remaining items.
func (c *Client) RemoveCartItem(ctx context.Context, userID, itemID string) ([]CartItem, error) {
	var env envelope[[]CartItem]
	path := "/v2/carts/" + url.PathEscape(userID) + "/items/" + url.PathEscape(itemID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListCartItems returns the cart's line items in insertion order.
func (c *Client) ListCartItems(ctx context.Context, userID string) ([]CartItem, error) {
	var env envelope[[]CartItem]
	path := "/v2/carts/" + url.PathEscape(userID) + "/items"
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateCustomer records a checkout contact. The remote does not dedupe by
// email and neither does this client: re-submission creates another record.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (Customer, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	var env envelope[Customer]
	if err := c.do(ctx, http.MethodPost, "/v2/customers", payload, &env); err != nil {
		return Customer{}, err
	}
	return env.Data, nil
}

// ResolveImage resolves the product's image relationship to a fetchable URL.
// It returns ErrNoImage when the product has no image relationship.
func (c *Client) ResolveImage(ctx context.Context, p Product) (string, error) {
	fileID := p.MainImageID()
	if fileID == "" {
		return "", ErrNoImage
	}
	var env envelope[fileRecord]
	if err := c.do(ctx, http.MethodGet, "/v2/files/"+url.PathEscape(fileID), nil, &env); err != nil {
		return "", err
	}
	if env.Data.Link.Href == "" {
		return "", fmt.Errorf("moltin: file %s has no link", fileID)
	}
	return env.Data.Link.Href, nil
}

// ImageURL resolves the product image, substituting the configured fallback
// when the product has no image or resolution fails. The failure is logged
// and never surfaced to callers.
func (c *Client) ImageURL(ctx context.Context, p Product) string {
	href, err := c.ResolveImage(ctx, p)
	if err != nil {
		logger.Debug(ctx, "moltin", "image.fallback",
			slog.String("product_id", p.ID),
			slog.String("err", err.Error()),
		)
		return c.fallbackImage
	}
	return href
}

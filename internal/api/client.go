// Package api implements the typed REST client for the remote storefront
// backend. The backend is the sole source of truth for products, carts,
// wishlists, profiles, and orders; this package only moves bytes and maps
// failures onto the standard error taxonomy. Calls here are never retried:
// a failure is surfaced immediately and the user decides whether to try
// again.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
	"github.com/revant7/trezora-frontend-sub000/pkg/httpclient"
)

// TokenProvider supplies the current bearer token for authenticated calls.
// The second return value is false when no session token is held.
type TokenProvider interface {
	Token() (string, bool)
}

// Client is the typed client for the storefront backend REST API.
type Client struct {
	baseURL string
	http    *httpclient.Client
	tokens  TokenProvider
	logger  *slog.Logger
}

// NewClient creates a backend API client. The transport never retries;
// see the package comment.
func NewClient(baseURL string, transport *httpclient.Client, tokens TokenProvider, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    transport,
		tokens:  tokens,
		logger:  logger,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks backend reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Get(ctx, c.baseURL+"/api/get-products/?page=1")
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// --- Session endpoints ---

// IssueToken exchanges credentials for an access/refresh token pair.
func (c *Client) IssueToken(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	err := c.post(ctx, "/api/token/", map[string]string{
		"email":    email,
		"password": password,
	}, &pair, false)
	return pair, err
}

// VerifyToken validates the given bearer token. A nil error means the token
// is valid; any other outcome (including transport failure) is an error.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/verify-token/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return apperrors.Unavailable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Register creates a new account. Backend validation messages are surfaced
// verbatim through the returned error.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	return c.post(ctx, "/api/register/", input, nil, false)
}

// --- Catalog endpoints ---

// GetProducts fetches one page of the unfiltered product listing.
func (c *Client) GetProducts(ctx context.Context, page int) (ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var out ProductPage
	err := c.get(ctx, "/api/get-products/?"+q.Encode(), &out, false)
	return out, err
}

// SearchProducts fetches one page of filtered search results. Result order
// is server-determined and preserved as returned.
func (c *Client) SearchProducts(ctx context.Context, query string, page int, filters SearchFilters) (ProductPage, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	filters.Encode(q)

	var out ProductPage
	err := c.get(ctx, "/api/search-products/?"+q.Encode(), &out, false)
	return out, err
}

// Autocomplete fetches search suggestions for a partial query.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	q := url.Values{}
	q.Set("q", query)

	var out []Suggestion
	err := c.get(ctx, "/api/autocomplete?"+q.Encode(), &out, false)
	return out, err
}

// GetDailyDeals fetches the current daily-deals payload.
func (c *Client) GetDailyDeals(ctx context.Context) ([]Deal, error) {
	var out []Deal
	err := c.get(ctx, "/api/get-daily-deals/", &out, false)
	return out, err
}

// --- Cart endpoints (authenticated) ---

// GetCartItems fetches the full server-side cart listing.
func (c *Client) GetCartItems(ctx context.Context) ([]CartItem, error) {
	var out []CartItem
	err := c.get(ctx, "/api/get-cart-items/", &out, true)
	return out, err
}

// GetCartItemsCount fetches the lightweight cart count.
func (c *Client) GetCartItemsCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := c.get(ctx, "/api/get-cart-items-count", &out, true)
	return out.Count, err
}

// AddItemToCart adds a product to the server-side cart.
func (c *Client) AddItemToCart(ctx context.Context, productID string, quantity int) error {
	return c.post(ctx, "/api/add-item-to-cart/", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}, nil, true)
}

// RemoveItemFromCart removes a product from the server-side cart.
func (c *Client) RemoveItemFromCart(ctx context.Context, productID string) error {
	return c.post(ctx, "/api/remove-item-from-cart/", map[string]string{
		"product_id": productID,
	}, nil, true)
}

// --- Wishlist endpoints (authenticated) ---

// GetWishlist fetches the full server-side wishlist.
func (c *Client) GetWishlist(ctx context.Context) ([]WishlistItem, error) {
	var out []WishlistItem
	err := c.get(ctx, "/api/get-wishlist/", &out, true)
	return out, err
}

// AddToWishlist saves a product to the wishlist.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	return c.post(ctx, "/api/add-to-wishlist/", map[string]string{
		"product_id": productID,
	}, nil, true)
}

// RemoveFromWishlist deletes a product from the wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	body, err := json.Marshal(map[string]string{"product_id": productID})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/remove-from-wishlist/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, nil, true)
}

// --- Profile endpoints (authenticated) ---

// GetProfile fetches the account profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.get(ctx, "/api/get-profile-details/", &out, true)
	return out, err
}

// UpdateProfile patches the mutable profile fields and returns the updated
// profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return Profile{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/update-profile/", bytes.NewReader(body))
	if err != nil {
		return Profile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out Profile
	err = c.send(req, &out, true)
	return out, err
}

// --- Order endpoints (authenticated) ---

// GetOrders fetches the order history.
func (c *Client) GetOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := c.get(ctx, "/api/get-orders/", &out, true)
	return out, err
}

// PostOrder submits a checkout. The backend builds the order from the
// server-side cart contents.
func (c *Client) PostOrder(ctx context.Context, input OrderInput) (Order, error) {
	var out Order
	err := c.post(ctx, "/api/post-orders/", input, &out, true)
	return out, err
}

// --- helpers ---

func (c *Client) get(ctx context.Context, path string, out any, authed bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.send(req, out, authed)
}

func (c *Client) post(ctx context.Context, path string, in, out any, authed bool) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out, authed)
}

// send executes the request, attaching the bearer token for authenticated
// endpoints, and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) send(req *http.Request, out any, authed bool) error {
	if authed {
		token, ok := c.tokens.Token()
		if !ok {
			return apperrors.Unauthorized("sign in required")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req.Context(), req)
	if err != nil {
		c.logger.WarnContext(req.Context(), "backend request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()),
		)
		return apperrors.Unavailable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp)
	}

	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

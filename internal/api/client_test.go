package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
	"github.com/revant7/trezora-frontend-sub000/pkg/httpclient"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport := httpclient.New(httpclient.NoRetryConfig(5 * time.Second))
	return NewClient(server.URL, transport, staticTokens{token: token}, testLogger()), server
}

func TestIssueToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/token/", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "shopper@example.com", creds["email"])

		_ = json.NewEncoder(w).Encode(TokenPair{Access: "acc-1", Refresh: "ref-1"})
	}), "")

	pair, err := client.IssueToken(context.Background(), "shopper@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", pair.Access)
	assert.Equal(t, "ref-1", pair.Refresh)
}

func TestIssueToken_BadCredentialsSurfacesBackendMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"no active account found with the given credentials"}`))
	}), "")

	_, err := client.IssueToken(context.Background(), "shopper@example.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "no active account found with the given credentials", appErr.Message)
}

func TestVerifyToken_SendsBearer(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/verify-token/", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}), "")

	assert.NoError(t, client.VerifyToken(context.Background(), "tok-1"))
}

func TestVerifyToken_RejectedToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token is invalid or expired"}`))
	}), "")

	err := client.VerifyToken(context.Background(), "stale")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestVerifyToken_NetworkErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Connection refused from here on.

	transport := httpclient.New(httpclient.NoRetryConfig(time.Second))
	client := NewClient(server.URL, transport, staticTokens{}, testLogger())

	err := client.VerifyToken(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestGetProducts_PageParam(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/get-products/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(ProductPage{
			Products:   []Product{{ID: "p-1", Name: "Phone"}},
			TotalPages: 7,
		})
	}), "")

	page, err := client.GetProducts(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Phone", page.Products[0].Name)
}

func TestSearchProducts_EncodesFilters(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search-products/", r.URL.Path)
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(ProductPage{TotalPages: 1})
	}), "")

	minPrice := 10.5
	filters := SearchFilters{
		SortBy:   SortPriceAsc,
		PriceMin: &minPrice,
		Category: "electronics",
	}

	_, err := client.SearchProducts(context.Background(), "phone", 2, filters)
	require.NoError(t, err)

	assert.Equal(t, "phone", gotQuery.Get("q"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "price_asc", gotQuery.Get("sort"))
	assert.Equal(t, "10.5", gotQuery.Get("min_price"))
	assert.Equal(t, "electronics", gotQuery.Get("category"))
	assert.False(t, gotQuery.Has("max_price"), "absent filters must not be sent")
	assert.False(t, gotQuery.Has("min_rating"), "absent filters must not be sent")
}

func TestGetCartItems_RequiresToken(t *testing.T) {
	var called bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), "")

	_, err := client.GetCartItems(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.False(t, called, "an unauthenticated call must not reach the backend")
}

func TestGetCartItems_SendsBearer(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]CartItem{
			{ID: "ci-1", Product: Product{ID: "p-1"}, Quantity: 2},
		})
	}), "tok-9")

	items, err := client.GetCartItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestGetCartItemsCount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/get-cart-items-count", r.URL.Path)
		_, _ = w.Write([]byte(`{"count":3}`))
	}), "tok")

	count, err := client.GetCartItemsCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRemoveFromWishlist_UsesDelete(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/remove-from-wishlist/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p-4", body["product_id"])
		w.WriteHeader(http.StatusNoContent)
	}), "tok")

	assert.NoError(t, client.RemoveFromWishlist(context.Background(), "p-4"))
}

func TestUpdateProfile_PatchesOnlyProvidedFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/update-profile/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["first_name"])
		_, hasLast := body["last_name"]
		assert.False(t, hasLast, "absent fields must be omitted from the PATCH body")

		_ = json.NewEncoder(w).Encode(Profile{FirstName: "Ada", Email: "ada@example.com"})
	}), "tok")

	first := "Ada"
	profile, err := client.UpdateProfile(context.Background(), ProfileUpdate{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
}

func TestRegister_BackendValidationSurfacedVerbatim(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"email":["a user with this email already exists"]}`))
	}), "")

	err := client.Register(context.Background(), RegisterInput{Email: "dup@example.com", Password: "x"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "a user with this email already exists")
}

func TestParseNumber(t *testing.T) {
	require.Nil(t, ParseNumber(""))
	require.Nil(t, ParseNumber("abc"))

	v := ParseNumber("12.5")
	require.NotNil(t, v)
	assert.Equal(t, 12.5, *v)
}

func TestSearchFilters_Equal(t *testing.T) {
	a, b := 5.0, 5.0
	assert.True(t, SearchFilters{PriceMin: &a}.Equal(SearchFilters{PriceMin: &b}))
	assert.False(t, SearchFilters{PriceMin: &a}.Equal(SearchFilters{}))
	assert.False(t, SearchFilters{SortBy: SortNewest}.Equal(SearchFilters{SortBy: SortRelevance}))
	assert.True(t, SearchFilters{}.Equal(SearchFilters{}))
}

func TestAPIError_WrappedTransportError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), "tok")

	_, err := client.GetOrders(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

package api

import (
	"net/url"
	"strconv"
	"time"
)

// TokenPair is the response of the token issuance endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Product is the backend's representation of a storefront product.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"image_url"`
	InStock     bool    `json:"in_stock"`
}

// ProductPage is one page of a product listing or search result.
type ProductPage struct {
	Products   []Product `json:"products"`
	TotalPages int       `json:"total_pages"`
}

// Suggestion is a single autocomplete entry.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartItem is a product plus quantity in the server-side cart.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// WishlistItem is a product saved to the server-side wishlist.
type WishlistItem struct {
	ID      string  `json:"id"`
	Product Product `json:"product"`
}

// Profile is the account profile owned by the backend.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
}

// ProfileUpdate holds the mutable profile fields for a PATCH. Nil fields are
// omitted and left untouched by the backend.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	ZipCode   *string `json:"zip_code,omitempty"`
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// Order is a placed order as returned by the order history endpoint.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderInput is the checkout submission payload. The backend assembles the
// order from the server-side cart; the client supplies shipping and payment
// references only.
type OrderInput struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
	City            string `json:"city" validate:"required"`
	ZipCode         string `json:"zip_code" validate:"required"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
}

// Deal is a time-boxed promotional listing.
type Deal struct {
	Product   Product   `json:"product"`
	DealPrice float64   `json:"deal_price"`
	EndsAt    time.Time `json:"ends_at"`
}

// Sort options accepted by the search endpoint.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// IsValidSort checks whether the given sort string is a known sort option.
func IsValidSort(sort string) bool {
	switch sort {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}

// SearchFilters is the filter/sort value object composed by the view layer
// and passed opaquely to the search endpoint. Nil fields are absent and
// omitted from the query string.
type SearchFilters struct {
	SortBy    string
	PriceMin  *float64
	PriceMax  *float64
	Category  string
	MinRating *float64
}

// Encode appends the filter fields to the given query values, skipping
// absent ones.
func (f SearchFilters) Encode(q url.Values) {
	if f.SortBy != "" {
		q.Set("sort", f.SortBy)
	}
	if f.PriceMin != nil {
		q.Set("min_price", strconv.FormatFloat(*f.PriceMin, 'f', -1, 64))
	}
	if f.PriceMax != nil {
		q.Set("max_price", strconv.FormatFloat(*f.PriceMax, 'f', -1, 64))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinRating != nil {
		q.Set("min_rating", strconv.FormatFloat(*f.MinRating, 'f', -1, 64))
	}
}

// Equal reports whether two filter specs request the same result set.
func (f SearchFilters) Equal(other SearchFilters) bool {
	return f.SortBy == other.SortBy &&
		f.Category == other.Category &&
		floatPtrEqual(f.PriceMin, other.PriceMin) &&
		floatPtrEqual(f.PriceMax, other.PriceMax) &&
		floatPtrEqual(f.MinRating, other.MinRating)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ParseNumber coerces free-form numeric input from the view layer. Invalid
// input silently defaults to absent.
func ParseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

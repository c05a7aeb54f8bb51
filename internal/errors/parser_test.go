package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
	"github.com/stretchr/testify/assert"
)

func TestParseError_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"session", service.ErrSessionNotFound, http.StatusUnauthorized, AuthSessionExpired},
		{"username", service.ErrUsernameRequired, http.StatusBadRequest, ValidationRequired},
		{"short password", service.ErrPasswordTooShort, http.StatusBadRequest, ValidationTooShort},
		{"empty cart", service.ErrCartEmpty, http.StatusBadRequest, CartEmpty},
		{"missing fields", &service.MissingFieldsError{Fields: []string{"city"}}, http.StatusBadRequest, CheckoutAddressIncomplete},
		{"stock", fmt.Errorf("%w. available: 1", service.ErrInsufficientStock), http.StatusConflict, CartInsufficientStock},
		{"cart item", service.ErrCartItemNotFound, http.StatusNotFound, CartItemNotFound},
		{"product", service.ErrProductNotFound, http.StatusNotFound, ProductNotFound},
		{"wishlist", service.ErrNotInWishlist, http.StatusNotFound, WishlistItemNotFound},
		{"quantity", service.ErrInvalidQuantity, http.StatusBadRequest, CartInvalidQuantity},
		{"upload", service.ErrUploadUnavailable, http.StatusServiceUnavailable, UploadUnavailable},
		{"sheet", fmt.Errorf("%w: bad header", service.ErrInvalidSheet), http.StatusBadRequest, SheetInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "")
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_StockMessageKeepsDetail(t *testing.T) {
	err := fmt.Errorf("%w. available: 2, already in cart: 1", service.ErrInsufficientStock)

	info := ParseError(err, "add to cart")

	assert.Equal(t, "not enough stock. available: 2, already in cart: 1", info.Message)
}

func TestParseError_APIErrors(t *testing.T) {
	unauthorized := ParseError(&shopapi.APIError{StatusCode: 401, Detail: "Token expired"}, "fetch cart")
	assert.Equal(t, http.StatusUnauthorized, unauthorized.Status)
	assert.Equal(t, AuthUnauthorized, unauthorized.Code)
	assert.Equal(t, "Token expired", unauthorized.Message)

	forbidden := ParseError(&shopapi.APIError{StatusCode: 403}, "delete product")
	assert.Equal(t, http.StatusForbidden, forbidden.Status)
	assert.Equal(t, AuthzForbidden, forbidden.Code)

	notFound := ParseError(fmt.Errorf("wrapped: %w", &shopapi.APIError{StatusCode: 404}), "fetch product")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, "Product not found", notFound.Message)

	invalid := ParseError(&shopapi.APIError{StatusCode: 400, Detail: "name: This field is required."}, "save product")
	assert.Equal(t, http.StatusBadRequest, invalid.Status)
	assert.Equal(t, ValidationInvalidInput, invalid.Code)
	assert.Equal(t, "name: This field is required.", invalid.Message)

	upstream := ParseError(&shopapi.APIError{StatusCode: 500}, "update product")
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, InternalExternalAPI, upstream.Code)
	assert.Equal(t, "Update failed. Please try again", upstream.Message)
}

func TestParseError_Network(t *testing.T) {
	info := ParseError(fmt.Errorf("%w: dial tcp: connection refused", shopapi.ErrNetworkError), "fetch products")

	assert.Equal(t, http.StatusBadGateway, info.Status)
	assert.Equal(t, InternalExternalAPI, info.Code)
}

func TestParseError_Fallback(t *testing.T) {
	info := ParseError(errors.New("boom"), "delete product")
	assert.Equal(t, http.StatusInternalServerError, info.Status)
	assert.Equal(t, "Delete failed. Please try again", info.Message)

	info = ParseError(nil, "")
	assert.Equal(t, InternalServerError, info.Code)
}

func TestParseAndRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ParseAndRespond(c, service.ErrCartEmpty, "checkout")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"CART_EMPTY","message":"Your cart is empty"}`, w.Body.String())
}

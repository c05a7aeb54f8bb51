package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

// ErrorInfo is the response shape derived from an error.
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError converts a service or shop API error into a status, code and user-facing message.
// context names the operation ("fetch product", "update cart item") and shapes fallback messages.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	// 1. domain errors
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return ErrorInfo{http.StatusUnauthorized, AuthSessionExpired, "Your session has expired, please log in again"}
	case errors.Is(err, service.ErrUsernameRequired), errors.Is(err, service.ErrPasswordRequired):
		return ErrorInfo{http.StatusBadRequest, ValidationRequired, err.Error()}
	case errors.Is(err, service.ErrPasswordTooShort):
		return ErrorInfo{http.StatusBadRequest, ValidationTooShort, err.Error()}
	case errors.Is(err, service.ErrCartEmpty):
		return ErrorInfo{http.StatusBadRequest, CartEmpty, "Your cart is empty"}
	case errors.Is(err, service.ErrInvalidAddress):
		return ErrorInfo{http.StatusBadRequest, CheckoutAddressIncomplete, err.Error()}
	case errors.Is(err, service.ErrInsufficientStock):
		return ErrorInfo{http.StatusConflict, CartInsufficientStock, err.Error()}
	case errors.Is(err, service.ErrCartItemNotFound):
		return ErrorInfo{http.StatusNotFound, CartItemNotFound, "Cart item not found"}
	case errors.Is(err, service.ErrProductNotFound):
		return ErrorInfo{http.StatusNotFound, ProductNotFound, "Product not found"}
	case errors.Is(err, service.ErrNotInWishlist):
		return ErrorInfo{http.StatusNotFound, WishlistItemNotFound, "Product is not in your wishlist"}
	case errors.Is(err, service.ErrInvalidQuantity):
		return ErrorInfo{http.StatusBadRequest, CartInvalidQuantity, err.Error()}
	case errors.Is(err, service.ErrUploadUnavailable):
		return ErrorInfo{http.StatusServiceUnavailable, UploadUnavailable, "Image upload is not available"}
	case errors.Is(err, service.ErrInvalidSheet):
		return ErrorInfo{http.StatusBadRequest, SheetInvalid, err.Error()}
	}

	// 2. shop API responses
	var apiErr *shopapi.APIError
	if errors.As(err, &apiErr) {
		return parseAPIError(apiErr, context)
	}

	// 3. network
	errLower := strings.ToLower(err.Error())
	if errors.Is(err, shopapi.ErrNetworkError) ||
		strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "Could not reach the shop. Please try again later",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseAPIError(apiErr *shopapi.APIError, context string) ErrorInfo {
	message := apiErr.Detail
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		if message == "" {
			message = "Please log in again"
		}
		return ErrorInfo{http.StatusUnauthorized, AuthUnauthorized, message}
	case apiErr.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "You do not have permission to do that"
		}
		return ErrorInfo{http.StatusForbidden, AuthzForbidden, message}
	case apiErr.StatusCode == http.StatusNotFound:
		return ErrorInfo{http.StatusNotFound, ResourceNotFound, getNotFoundMessage(context)}
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		if message == "" {
			message = "The shop rejected the request"
		}
		return ErrorInfo{http.StatusBadRequest, ValidationInvalidInput, message}
	}
	return ErrorInfo{
		Status:  http.StatusBadGateway,
		Code:    InternalExternalAPI,
		Message: getDefaultErrorMessage(context),
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "Product not found"
	case strings.Contains(contextLower, "cart"):
		return "Cart item not found"
	case strings.Contains(contextLower, "category"):
		return "Category not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested resource was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"), strings.Contains(contextLower, "save"):
		return "Save failed. Please try again"
	case strings.Contains(contextLower, "update"):
		return "Update failed. Please try again"
	case strings.Contains(contextLower, "delete"):
		return "Delete failed. Please try again"
	case strings.Contains(contextLower, "fetch"), strings.Contains(contextLower, "list"):
		return "Failed to load data. Please try again"
	}
	return "Something went wrong. Please try again"
}

// ParseAndRespond writes the parsed error as the response.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	info := ParseError(err, context)
	c.JSON(info.Status, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}

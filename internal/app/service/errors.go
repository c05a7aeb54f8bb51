package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUsernameRequired  = errors.New("username is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
	ErrCartEmpty         = errors.New("your cart is empty")
	ErrInvalidAddress    = errors.New("invalid billing address")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrNotInWishlist     = errors.New("product not in wishlist")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrUploadUnavailable = errors.New("image upload is not configured")
	ErrInvalidSheet      = errors.New("invalid product sheet")
)

// MissingFieldsError lists the required billing fields left empty. It matches ErrInvalidAddress.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrInvalidAddress
}

func isNotFound(err error) bool {
	return errors.Is(err, shopapi.ErrNotFound)
}

func invalidSheet(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidSheet, err)
}

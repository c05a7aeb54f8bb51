package errors

// Error codes returned in the "error" field of every failure response.
// Format: CATEGORY_SPECIFIC_DETAIL. The storefront maps these to its own copy.

const (
	// auth
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthSessionExpired     = "AUTH_SESSION_EXPIRED"

	// authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationTooShort     = "VALIDATION_TOO_SHORT"

	// resources
	ResourceNotFound = "RESOURCE_NOT_FOUND"
	ProductNotFound  = "PRODUCT_NOT_FOUND"

	// cart / wishlist / checkout
	CartEmpty                 = "CART_EMPTY"
	CartItemNotFound          = "CART_ITEM_NOT_FOUND"
	CartInsufficientStock     = "CART_INSUFFICIENT_STOCK"
	CartInvalidQuantity       = "CART_INVALID_QUANTITY"
	WishlistItemNotFound      = "WISHLIST_ITEM_NOT_FOUND"
	CheckoutAddressIncomplete = "CHECKOUT_ADDRESS_INCOMPLETE"

	// uploads and sheets
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadUnavailable     = "UPLOAD_UNAVAILABLE"
	SheetInvalid          = "SHEET_INVALID"

	// internal
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API"
)

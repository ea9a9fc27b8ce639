package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is()
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrDomainInvariant = errors.New("domain invariant violated")
	ErrCacheMiss       = errors.New("cache miss")
	ErrInternal        = errors.New("internal server error")
)

// AppError carries a stable machine-checkable code alongside the
// human-readable message and the taxonomy sentinel it belongs to.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the taxonomy kind of err to an HTTP status code.
// Anything outside the taxonomy renders as a 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrDomainInvariant):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable error code for err, or "INTERNAL" for
// unrecognized errors so internals never leak to clients.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL"
}

func Validation(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrValidation}
}

func Unauthorized(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrUnauthorized}
}

func Forbidden(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrForbidden}
}

func NotFound(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrNotFound}
}

func Conflict(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrConflict}
}

func DomainInvariant(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Err: ErrDomainInvariant}
}

func Internal(msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL", Message: msg, Err: fmt.Errorf("%w: %w", ErrInternal, err)}
}

// Domain errors shared across services. Authorization denials stay
// indistinguishable from missing resources on purpose.
var (
	ErrMissingAccessToken      = Unauthorized("MISSING_ACCESS_TOKEN", "missing access token")
	ErrInvalidAccessToken      = Unauthorized("INVALID_ACCESS_TOKEN", "invalid access token")
	ErrInvalidAPIKey           = Unauthorized("INVALID_API_KEY", "invalid api key")
	ErrRefreshTokenAlreadyUsed = Unauthorized("REFRESH_TOKEN_ALREADY_USED", "refresh token has already been used")
	ErrPermissionDenied        = Forbidden("PERMISSION_DENIED", "permission denied")

	ErrNotFoundSKU         = NotFound("NOT_FOUND_SKU", "sku not found")
	ErrNotFoundCartItem    = NotFound("NOT_FOUND_CART_ITEM", "cart item not found")
	ErrOrderNotFound       = NotFound("ORDER_NOT_FOUND", "order not found")
	ErrNotFoundRecord      = NotFound("NOT_FOUND_RECORD", "record not found")
	ErrProductNotFound     = NotFound("PRODUCT_NOT_FOUND", "product not found")
	ErrOutOfStock          = DomainInvariant("OUT_OF_STOCK_SKU", "sku is out of stock")
	ErrSKUNotBelongToShop  = DomainInvariant("SKU_NOT_BELONG_TO_SHOP", "sku does not belong to the given shop")
	ErrCannotCancelOrder   = DomainInvariant("CANNOT_CANCEL_ORDER", "only pending-payment orders can be cancelled")
	ErrPaymentNotFound     = NotFound("PAYMENT_NOT_FOUND", "payment not found")
	ErrInvalidPaymentTotal = DomainInvariant("INVALID_PAYMENT_TOTAL", "transferred amount does not match order total")

	ErrOrderNotDelivered   = DomainInvariant("ORDER_NOT_DELIVERED", "only delivered orders can be reviewed")
	ErrProductNotInOrder   = DomainInvariant("PRODUCT_NOT_IN_ORDER", "product is not part of the given order")
	ErrReviewEditLimit     = DomainInvariant("REVIEW_EDIT_LIMIT", "a review can only be edited once")
	ErrReviewAlreadyExists = Conflict("REVIEW_ALREADY_EXISTS", "this order item has already been reviewed")

	ErrCannotModifySelf = Forbidden("CANNOT_UPDATE_OR_DELETE_YOURSELF", "you cannot update or delete your own account here")

	ErrEmailAlreadyExists      = Conflict("EMAIL_ALREADY_EXISTS", "email already exists")
	ErrRoleAlreadyExists       = Conflict("ROLE_ALREADY_EXISTS", "role already exists")
	ErrPermissionAlreadyExists = Conflict("PERMISSION_ALREADY_EXISTS", "permission already exists")
	ErrInvalidCredentials      = Unauthorized("INVALID_CREDENTIALS", "invalid email or password")
	ErrProhibitedOnBaseRole    = Forbidden("PROHIBITED_ON_BASE_ROLE", "base roles cannot be modified or deleted")
)

package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gomall/internal/models"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Register custom validation tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	err := v.RegisterValidation("http_method", validateHTTPMethod)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("order_status", validateOrderStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("language_code", validateLanguageCode)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateHTTPMethod(fl playgroundvalidator.FieldLevel) bool {
	method := fl.Field().String()
	validMethods := map[string]bool{
		string(models.MethodGet):     true,
		string(models.MethodPost):    true,
		string(models.MethodPut):     true,
		string(models.MethodPatch):   true,
		string(models.MethodDelete):  true,
		string(models.MethodHead):    true,
		string(models.MethodOptions): true,
	}
	return validMethods[method]
}

func validateOrderStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	validStatuses := map[string]bool{
		string(models.OrderStatusPendingPayment):  true,
		string(models.OrderStatusPendingPickup):   true,
		string(models.OrderStatusPendingDelivery): true,
		string(models.OrderStatusDelivered):       true,
		string(models.OrderStatusReturned):        true,
		string(models.OrderStatusCancelled):       true,
	}
	return validStatuses[status]
}

func validateLanguageCode(fl playgroundvalidator.FieldLevel) bool {
	code := fl.Field().String()
	return len(code) >= 2 && len(code) <= 10
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// RegisterRequest Request validation structs based on models
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type UpdateMeRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type CreateReviewRequest struct {
	OrderID   string `json:"orderId" validate:"required,uuid"`
	ProductID string `json:"productId" validate:"required,uuid"`
	Content   string `json:"content" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
}

type UpdateReviewRequest struct {
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE BLOCKED"`
	RoleID   string `json:"roleId" validate:"required,uuid"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Name     string `json:"name" validate:"omitempty,min=2"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
	Status   string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE BLOCKED"`
	RoleID   string `json:"roleId" validate:"omitempty,uuid"`
}

type AddToCartRequest struct {
	SKUID    string `json:"skuId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	SKUID    string `json:"skuId" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type OrderReceiverRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// CreateOrderShopRequest groups one shop's cart item ids with the
// receiver they ship to.
type CreateOrderShopRequest struct {
	ShopID      string               `json:"shopId" validate:"required,uuid"`
	Receiver    OrderReceiverRequest `json:"receiver" validate:"required"`
	CartItemIDs []string             `json:"cartItemIds" validate:"required,min=1,dive,uuid"`
}

type CreateOrderRequest struct {
	Shops []CreateOrderShopRequest `json:"shops" validate:"required,min=1,dive"`
}

type RoleRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	IsActive      *bool    `json:"isActive"`
	PermissionIDs []string `json:"permissionIds" validate:"omitempty,dive,uuid"`
}

type PermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Path        string `json:"path" validate:"required,startswith=/"`
	Method      string `json:"method" validate:"required,http_method"`
	Module      string `json:"module" validate:"required"`
}

type PaymentWebhookRequest struct {
	ID                 int     `json:"id" validate:"required"`
	Gateway            string  `json:"gateway" validate:"required"`
	TransactionDate    string  `json:"transactionDate" validate:"required"`
	AccountNumber      *string `json:"accountNumber"`
	SubAccount         *string `json:"subAccount"`
	AmountIn           float64 `json:"transferAmount" validate:"min=0"`
	TransferType       string  `json:"transferType" validate:"required,oneof=in out"`
	TransactionContent string  `json:"content" validate:"required"`
	ReferenceNumber    *string `json:"referenceCode"`
	Code               *string `json:"code"`
	Accumulated        float64 `json:"accumulated"`
}

type ProductRequest struct {
	Name         string   `json:"name" validate:"required"`
	BasePrice    float64  `json:"basePrice" validate:"required,min=0"`
	VirtualPrice float64  `json:"virtualPrice" validate:"min=0"`
	BrandID      string   `json:"brandId" validate:"required,uuid"`
	CategoryIDs  []string `json:"categoryIds" validate:"omitempty,dive,uuid"`
	Images       []string `json:"images"`
}

type ProductTranslationRequest struct {
	ProductID   string `json:"productId" validate:"required,uuid"`
	LanguageID  string `json:"languageId" validate:"required,language_code"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type SKURequest struct {
	ProductID string  `json:"productId" validate:"required,uuid"`
	Value     string  `json:"value" validate:"required"`
	Price     float64 `json:"price" validate:"required,min=0"`
	Stock     int     `json:"stock" validate:"min=0"`
	Image     string  `json:"image"`
}

type LanguageRequest struct {
	ID   string `json:"id" validate:"required,language_code"`
	Name string `json:"name" validate:"required"`
}

type BrandRequest struct {
	Name string `json:"name" validate:"required"`
	Logo string `json:"logo"`
}

type CategoryRequest struct {
	Name     string  `json:"name" validate:"required"`
	Logo     string  `json:"logo"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

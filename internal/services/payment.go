package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gomall/internal/errs"
	"gomall/internal/events"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"gorm.io/gorm"
)

// PaymentCodePrefix marks the payment reference inside a bank transfer
// description, e.g. "DH3f2a... thanh toan don hang".
const PaymentCodePrefix = "DH"

// WebhookInput is the normalized gateway payload.
type WebhookInput struct {
	Gateway            string
	AccountNumber      string
	AmountIn           float64
	AmountOut          float64
	TransferType       string
	TransactionContent string
	ReferenceNumber    string
	Code               string
}

// PaymentService interprets gateway webhooks. Every call is recorded as
// a PaymentTransaction first; interpretation failures never lose the
// audit row.
type PaymentService struct {
	db        *gorm.DB
	orders    *OrderService
	scheduler CancellationScheduler
	log       *logger.Logger
}

func NewPaymentService(db *gorm.DB, orders *OrderService, scheduler CancellationScheduler) *PaymentService {
	return &PaymentService{
		db:        db,
		orders:    orders,
		scheduler: scheduler,
		log:       logger.New("PAYMENT_SERVICE"),
	}
}

// ExtractPaymentID finds the "DH"-prefixed payment reference in a
// transfer description. Empty when no reference is present.
func ExtractPaymentID(content string) string {
	for _, field := range strings.Fields(content) {
		if strings.HasPrefix(field, PaymentCodePrefix) && len(field) > len(PaymentCodePrefix) {
			return field[len(PaymentCodePrefix):]
		}
	}
	return ""
}

// PaymentCode renders the transfer reference clients must put in the
// transaction description for a payment.
func PaymentCode(paymentID string) string {
	return fmt.Sprintf("%s%s", PaymentCodePrefix, paymentID)
}

// HandleWebhook records the transaction, matches it to a pending
// payment, verifies the amount covers the batch total, then marks
// the payment succeeded and moves its orders to PENDING_PICKUP. The
// deferred expiry job is removed and the paying user notified only
// after the transition commits.
func (s *PaymentService) HandleWebhook(ctx context.Context, input WebhookInput) (*models.Payment, error) {
	transaction := models.PaymentTransaction{
		Gateway:            input.Gateway,
		AccountNumber:      input.AccountNumber,
		AmountIn:           input.AmountIn,
		AmountOut:          input.AmountOut,
		TransactionContent: input.TransactionContent,
		ReferenceNumber:    input.ReferenceNumber,
		Code:               input.Code,
	}
	if err := s.db.WithContext(ctx).Create(&transaction).Error; err != nil {
		return nil, s.log.Error("failed to record payment transaction", err)
	}

	if input.TransferType != "in" {
		return nil, errs.ErrPaymentNotFound
	}

	paymentID := input.Code
	if paymentID == "" {
		paymentID = ExtractPaymentID(input.TransactionContent)
	}
	if paymentID == "" {
		return nil, errs.ErrPaymentNotFound
	}

	var payment models.Payment
	err := models.Active(s.db.WithContext(ctx)).
		Preload("Orders", "deleted_at IS NULL").
		First(&payment, "id = ? AND status = ?", paymentID, models.PaymentStatusPending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		return nil, s.log.Error("failed to load payment", err)
	}

	total, err := s.orders.PaymentTotal(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if input.AmountIn < total {
		return nil, errs.ErrInvalidPaymentTotal
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The status guard keeps a replayed webhook from re-processing.
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusSucceeded)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.ErrPaymentNotFound
		}

		return tx.Model(&models.Order{}).
			Where("payment_id = ? AND status = ?", payment.ID, models.OrderStatusPendingPayment).
			Update("status", models.OrderStatusPendingPickup).Error
	})
	if err != nil {
		return nil, err
	}
	payment.Status = models.PaymentStatusSucceeded

	if s.scheduler != nil {
		if err := s.scheduler.CancelScheduled(ctx, payment.ID); err != nil {
			// The fired job re-checks payment status, so a leftover job
			// is harmless.
			s.log.Error("failed to remove scheduled expiry", err)
		}
	}

	if len(payment.Orders) > 0 {
		events.Emit(events.PaymentSucceeded, events.PaymentEvent{
			UserID:    payment.Orders[0].UserID,
			PaymentID: payment.ID,
			Status:    string(models.PaymentStatusSucceeded),
		})
	}

	return &payment, nil
}

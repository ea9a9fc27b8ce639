package tasks

import (
	"context"
	"encoding/json"
	"time"

	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskHandler handles task processing with improved error handling and logging
type TaskHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		db:     db,
		logger: logger.New("TASK_HANDLER"),
	}
}

// HandleCancelPayment fires when a payment has been pending for the
// full expiry window. Enqueue-time state is not trusted: the payment is
// re-read, and one that succeeded in the meantime is left alone.
func (h *TaskHandler) HandleCancelPayment(ctx context.Context, task *asynq.Task) error {
	var payload CancelPaymentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return h.logger.Error("invalid cancel-payment payload", err)
	}

	var payment models.Payment
	err := models.Active(h.db.WithContext(ctx)).
		Preload("Orders", "deleted_at IS NULL").
		First(&payment, "id = ?", payload.PaymentID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			h.logger.Warn("payment %s gone before expiry fired", payload.PaymentID)
			return nil
		}
		return h.logger.Error("failed to load payment", err)
	}

	if payment.Status != models.PaymentStatusPending {
		h.logger.Info("payment %s is %s, expiry is a no-op", payment.ID, payment.Status)
		return nil
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusFailed)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Paid in the window between the read above and this write.
			return nil
		}

		for _, order := range payment.Orders {
			if order.Status != models.OrderStatusPendingPayment {
				continue
			}
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", order.ID, models.OrderStatusPendingPayment).
				Update("status", models.OrderStatusCancelled).Error; err != nil {
				return err
			}

			// Release the stock the expired orders were holding.
			var items []models.OrderItem
			if err := tx.Find(&items, "order_id = ?", order.ID).Error; err != nil {
				return err
			}
			for _, item := range items {
				if err := tx.Model(&models.SKU{}).
					Where("id = ?", item.SKUID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return h.logger.Error("failed to expire payment", err)
	}

	h.logger.Success("expired pending payment %s and released its stock", payment.ID)
	return nil
}

// HandlePurgeRefreshTokens drops refresh tokens that are expired or
// were rotated more than 30 days ago. Token rows are security working
// state, purged outright.
func (h *TaskHandler) HandlePurgeRefreshTokens(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	result := h.db.WithContext(ctx).
		Where("expires_at < ? OR used_at < ?", time.Now(), cutoff).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		return h.logger.Error("failed to purge refresh tokens", result.Error)
	}

	h.logger.Info("purged %d refresh tokens", result.RowsAffected)
	return nil
}

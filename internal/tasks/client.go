package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gomall/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// CancelPaymentPayload is the payload of a TaskTypeCancelPayment task.
type CancelPaymentPayload struct {
	PaymentID string `json:"paymentId"`
}

// CancelPaymentTaskID derives the deterministic task id for a payment.
// Both scheduling and removal go through this key.
func CancelPaymentTaskID(paymentID string) string {
	return fmt.Sprintf("paymentId:%s", paymentID)
}

// TaskClient handles task enqueuing with improved error handling and context support
type TaskClient struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	logger    *logger.Logger
}

func (c *TaskClient) GetClient() *asynq.Client {
	return c.client
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	return &TaskClient{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		logger:    logger.New("TASKS"),
	}
}

// Close closes the underlying asynq client
func (c *TaskClient) Close() error {
	return c.client.Close()
}

// ScheduleCancelPayment enqueues the payment-expiry job to fire after
// PaymentExpiry. Scheduling the same payment again replaces the
// previous job rather than stacking a second one.
func (c *TaskClient) ScheduleCancelPayment(ctx context.Context, paymentID string) error {
	payload, err := json.Marshal(CancelPaymentPayload{PaymentID: paymentID})
	if err != nil {
		return c.logger.Error("failed to marshal cancel-payment payload", err)
	}

	task := asynq.NewTask(TaskTypeCancelPayment, payload)
	opts := []asynq.Option{
		asynq.TaskID(CancelPaymentTaskID(paymentID)),
		asynq.ProcessIn(PaymentExpiry),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
	}

	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		if err := c.CancelScheduled(ctx, paymentID); err != nil {
			return err
		}
		_, err = c.client.EnqueueContext(ctx, task, opts...)
	}
	if err != nil {
		return c.logger.Error("failed to schedule cancel-payment task", err)
	}

	c.logger.Info("scheduled payment expiry for payment %s", paymentID)
	return nil
}

// CancelScheduled removes the payment-expiry job by its deterministic
// key. A job that already fired or never existed is not an error.
func (c *TaskClient) CancelScheduled(_ context.Context, paymentID string) error {
	err := c.inspector.DeleteTask(QueueCritical, CancelPaymentTaskID(paymentID))
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil
		}
		return c.logger.Error("failed to remove cancel-payment task", err)
	}

	c.logger.Info("removed payment expiry for payment %s", paymentID)
	return nil
}

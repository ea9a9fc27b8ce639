package tasks

import "time"

// Task Types
const (
	// TaskTypeCancelPayment is the deferred payment-expiry job, keyed by
	// payment id so re-enqueuing the same payment replaces the old job.
	TaskTypeCancelPayment = "payment:cancel"
	// TaskTypePurgeRefreshTokens removes expired and long-used refresh
	// token rows.
	TaskTypePurgeRefreshTokens = "auth:purge-refresh-tokens"
)

// Task Queues
const (
	QueueCritical = "critical" // For time-sensitive tasks like payment expiry
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background tasks like cleanup
)

// PaymentExpiry is how long a payment may stay pending before its
// orders are cancelled and their stock released.
const PaymentExpiry = 24 * time.Hour

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
)

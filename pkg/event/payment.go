package event

import "time"

const (
	PaymentCompletedTopic = "PAYMENT_COMPLETED"
	PaymentFailedTopic    = "PAYMENT_FAILED"
)

type PaymentResultEvent struct {
	PaymentID     string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId,omitempty"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transactionId,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

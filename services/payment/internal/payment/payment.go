package payment

import (
	"time"

	"github.com/appetiteclub/delivery/pkg/enums/paymentstatus"
	"github.com/appetiteclub/delivery/pkg/event"
	"github.com/appetiteclub/delivery/pkg/money"
	"github.com/google/uuid"
)

// Methods accepted for a payment.
const (
	MethodCreditCard = "credit_card"
	MethodDebitCard  = "debit_card"
	MethodPayPal     = "paypal"
	MethodCash       = "cash"
	MethodCrypto     = "crypto"
)

// Payment is the charge for one order. Payments are keyed by order id; a
// new POST for the same order updates the existing row.
type Payment struct {
	ID            uuid.UUID  `json:"paymentId" bson:"_id"`
	OrderID       string     `json:"orderId" bson:"order_id"`
	Amount        float64    `json:"amount" bson:"amount"`
	Method        string     `json:"method" bson:"method"`
	UserID        string     `json:"userId" bson:"user_id"`
	Status        string     `json:"status" bson:"status"`
	TransactionID string     `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	FailureReason string     `json:"failureReason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updated_at"`
	ProcessedAt   *time.Time `json:"processedAt,omitempty" bson:"processed_at,omitempty"`
}

func NewPayment(orderID string, now time.Time) *Payment {
	return &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    paymentstatus.Statuses.Pending.Code(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Payment) GetID() uuid.UUID {
	return p.ID
}

func (p *Payment) ResourceType() string {
	return "payment"
}

// ApplyStatus moves the payment to next. Settling as success or failed
// stamps ProcessedAt. It reports whether the status actually changed.
func (p *Payment) ApplyStatus(next string, now time.Time) (bool, error) {
	if !paymentstatus.Valid(next) {
		return false, &InputError{Message: "Invalid payment status: " + next}
	}
	if !paymentstatus.CanTransition(p.Status, next) {
		return false, &TransitionError{From: p.Status, To: next}
	}
	if p.Status == next {
		return false, nil
	}

	p.Status = next
	p.UpdatedAt = now
	if paymentstatus.Settled(next) {
		p.ProcessedAt = &now
	}
	return true, nil
}

// resultTopic is the event announced when the payment settles, or "".
func (p *Payment) resultTopic() string {
	switch p.Status {
	case paymentstatus.Statuses.Success.Code():
		return event.PaymentCompletedTopic
	case paymentstatus.Statuses.Failed.Code():
		return event.PaymentFailedTopic
	default:
		return ""
	}
}

func (p *Payment) resultEvent(now time.Time) event.PaymentResultEvent {
	return event.PaymentResultEvent{
		PaymentID:     p.ID.String(),
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		OccurredAt:    now,
	}
}

// Stats is the rollup served by GET /payments/stats. Amounts cover
// successful payments only.
type Stats struct {
	Total         int64   `json:"total"`
	Successful    int64   `json:"successful"`
	Failed        int64   `json:"failed"`
	Pending       int64   `json:"pending"`
	Processing    int64   `json:"processing"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageAmount float64 `json:"averageAmount"`
	SuccessRate   float64 `json:"successRate"`
}

// NewStats builds the rollup from per-status counts and the summed amount
// of successful payments. The success rate is a percentage.
func NewStats(counts map[string]int64, successAmount float64) *Stats {
	st := &Stats{
		Successful: counts[paymentstatus.Statuses.Success.Code()],
		Failed:     counts[paymentstatus.Statuses.Failed.Code()],
		Pending:    counts[paymentstatus.Statuses.Pending.Code()],
		Processing: counts[paymentstatus.Statuses.Processing.Code()],
	}
	for _, n := range counts {
		st.Total += n
	}
	st.TotalAmount = money.Round2(successAmount)
	st.AverageAmount = money.Average(successAmount, st.Successful)
	st.SuccessRate = money.Ratio(st.Successful, st.Total)
	return st
}

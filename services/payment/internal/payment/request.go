package payment

type CreatePaymentRequest struct {
	OrderID string  `json:"orderId" validate:"required,max=64"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Method  string  `json:"method" validate:"required,oneof=credit_card debit_card paypal cash crypto"`
	UserID  string  `json:"userId" validate:"max=64"`
}

// UpdatePaymentRequest patches a payment. Nil fields are left alone.
type UpdatePaymentRequest struct {
	Status        *string `json:"status" validate:"omitempty,oneof=pending processing success failed"`
	Method        *string `json:"method" validate:"omitempty,oneof=credit_card debit_card paypal cash crypto"`
	TransactionID *string `json:"transactionId" validate:"omitempty,max=128"`
	FailureReason *string `json:"failureReason" validate:"omitempty,max=500"`
}

func (req *UpdatePaymentRequest) empty() bool {
	return req.Status == nil && req.Method == nil && req.TransactionID == nil && req.FailureReason == nil
}

func (req *UpdatePaymentRequest) applyFields(p *Payment) {
	if req.Method != nil {
		p.Method = *req.Method
	}
	if req.TransactionID != nil {
		p.TransactionID = *req.TransactionID
	}
	if req.FailureReason != nil {
		p.FailureReason = *req.FailureReason
	}
}

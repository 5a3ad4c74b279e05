package payment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("payment not found")
	// ErrAlreadySettled means the order's payment already succeeded.
	ErrAlreadySettled = errors.New("payment already completed for this order")
)

// InputError is a malformed request. Message is returned verbatim.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change payment status from %s to %s", e.From, e.To)
}

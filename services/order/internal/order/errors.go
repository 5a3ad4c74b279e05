package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrIdempotencyPending = errors.New("request with this idempotency key is still in progress")
)

// ValidationError is a client input error. Message is returned verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RejectionError is raised when the restaurant service refuses the order.
type RejectionError struct {
	Message string
	Reason  string
	Details []string
}

func (e *RejectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	Kind string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change %s from %s to %s", e.Kind, e.From, e.To)
}

package kitchen

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("kitchen order not found")
	ErrNoRestaurant = errors.New("no restaurant found for this user")
)

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change kitchen order from %s to %s", e.From, e.To)
}

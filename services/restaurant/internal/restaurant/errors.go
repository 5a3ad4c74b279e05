package restaurant

import "errors"

var (
	ErrNotFound         = errors.New("restaurant not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrOwnerExists      = errors.New("restaurant already exists for this user")
)

// InputError is a malformed request. Message is returned verbatim.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

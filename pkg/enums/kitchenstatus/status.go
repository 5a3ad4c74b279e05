package kitchenstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Received  Status
	Preparing Status
	Ready     Status
	PickedUp  Status
	Cancelled Status
}

var Statuses = Enum{
	Received:  Status{Name: "received"},
	Preparing: Status{Name: "preparing"},
	Ready:     Status{Name: "ready"},
	PickedUp:  Status{Name: "picked_up"},
	Cancelled: Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Received,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.PickedUp,
	Statuses.Cancelled,
}

var transitions = map[string][]string{
	"received":  {"preparing", "cancelled"},
	"preparing": {"ready", "cancelled"},
	"ready":     {"picked_up"},
	"picked_up": {},
	"cancelled": {},
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

func Valid(name string) bool {
	return ByName(name) != nil
}

// CanTransition reports whether a kitchen order may move from current to next.
func CanTransition(current, next string) bool {
	if !Valid(current) || !Valid(next) || current == next {
		return false
	}
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

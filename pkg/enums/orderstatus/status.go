package orderstatus

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

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s.Name]) == 0
}

type Enum struct {
	Pending        Status
	Confirmed      Status
	Preparing      Status
	Ready          Status
	OutForDelivery Status
	Delivered      Status
	Cancelled      Status
}

var Statuses = Enum{
	Pending:        Status{Name: "pending"},
	Confirmed:      Status{Name: "confirmed"},
	Preparing:      Status{Name: "preparing"},
	Ready:          Status{Name: "ready"},
	OutForDelivery: Status{Name: "out_for_delivery"},
	Delivered:      Status{Name: "delivered"},
	Cancelled:      Status{Name: "cancelled"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.Preparing,
	Statuses.Ready,
	Statuses.OutForDelivery,
	Statuses.Delivered,
	Statuses.Cancelled,
}

// chain is the forward path an order takes when nothing goes wrong.
var chain = []string{
	"pending",
	"confirmed",
	"preparing",
	"ready",
	"out_for_delivery",
	"delivered",
}

var transitions = map[string][]string{
	"pending":          {"confirmed", "cancelled"},
	"confirmed":        {"preparing", "cancelled"},
	"preparing":        {"ready", "cancelled"},
	"ready":            {"out_for_delivery", "cancelled"},
	"out_for_delivery": {"delivered", "cancelled"},
	"delivered":        {},
	"cancelled":        {},
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

// Valid reports whether name is a known order status.
func Valid(name string) bool {
	return ByName(name) != nil
}

// CanTransition reports whether an order may move from current to next.
// Re-applying the current status is always accepted as a no-op.
func CanTransition(current, next string) bool {
	if !Valid(current) || !Valid(next) {
		return false
	}
	if current == next {
		return true
	}
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Path returns the forward steps needed to reach target from current,
// excluding current itself. It returns nil when target is not ahead of
// current on the delivery chain.
func Path(current, target string) []string {
	from, to := -1, -1
	for i, name := range chain {
		if name == current {
			from = i
		}
		if name == target {
			to = i
		}
	}
	if from < 0 || to < 0 || to <= from {
		return nil
	}
	steps := make([]string, 0, to-from)
	steps = append(steps, chain[from+1:to+1]...)
	return steps
}

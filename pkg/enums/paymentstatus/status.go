package paymentstatus

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

type Enum struct {
	Pending    Status
	Processing Status
	Success    Status
	Failed     Status
}

var Statuses = Enum{
	Pending:    Status{Name: "pending"},
	Processing: Status{Name: "processing"},
	Success:    Status{Name: "success"},
	Failed:     Status{Name: "failed"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Processing,
	Statuses.Success,
	Statuses.Failed,
}

var transitions = map[string][]string{
	"pending":    {"processing", "success", "failed"},
	"processing": {"success", "failed"},
	"failed":     {"pending", "processing", "success"},
	"success":    {},
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

// CanTransition reports whether a payment may move from current to next.
// A successful payment is final.
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

// Settled reports whether name is an outcome that stamps a processing time.
func Settled(name string) bool {
	return name == Statuses.Success.Name || name == Statuses.Failed.Name
}

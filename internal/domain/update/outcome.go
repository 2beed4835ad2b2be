package update

// Status classifies the terminal result of a background operation.
type Status int

const (
	// StatusSuccess means the operation ran to completion and carries a payload.
	StatusSuccess Status = iota
	// StatusCancelled means cooperative cancellation was observed.
	StatusCancelled
	// StatusFailed means the operation aborted with an error.
	StatusFailed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of a background operation.
// Exactly one Outcome is produced per task invocation; the three states are
// mutually exclusive and collectively exhaustive.
type Outcome[T any] struct {
	// Status is the terminal state of the operation.
	Status Status
	// Value is the payload; meaningful only when Status is StatusSuccess.
	Value T
	// Err is the cause; meaningful only when Status is StatusFailed.
	Err error
}

// Success produces a successful outcome carrying the payload.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Value: value}
}

// Cancelled produces a cancelled outcome.
func Cancelled[T any]() Outcome[T] {
	return Outcome[T]{Status: StatusCancelled}
}

// Failed produces a failed outcome carrying the cause.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusFailed, Err: err}
}

package runner

// FlowState tracks a flow instance through its lifecycle. Instances move
// Pending -> Running -> Completed or Aborted -> Reported; no other
// transitions exist.
type FlowState int

const (
	StatePending FlowState = iota
	StateRunning
	StateCompleted
	StateAborted
	StateReported
)

func (s FlowState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateReported:
		return "reported"
	default:
		return "unknown"
	}
}

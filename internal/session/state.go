package session

// State tracks one recording attempt through its lifecycle. Closed is
// equivalent to Idle for restart purposes: a new start allocates a brand-new
// StreamingSession rather than reviving this one.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the attempt is over and a new one may start.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateClosed
}

package connection

// -----------------------------------------------------------------------------
// Connection lifecycle states. Closed cycles back through Reconnecting ->
// Connecting while subscriptions remain; Abandoned is terminal.
// -----------------------------------------------------------------------------

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateReconnecting
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Lifecycle notifications emitted by the manager.
// -----------------------------------------------------------------------------

type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventReconnecting
	EventAbandoned
)

// Event is a connection-lifecycle notification. Abandoned events carry the
// ids of the subscriptions purged with the dead connection.
type Event struct {
	ClientID  string
	Kind      EventKind
	Attempt   int
	Err       error
	PurgedIDs []string
}

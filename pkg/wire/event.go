package wire

import "fmt"

// LevelUnknown marks a load activation whose level was not reported.
// Plain Niii events say only that the load is on; ^K dim reports carry
// the new level.
const LevelUnknown = -1

// ConnectivityKey is the registry key for connectivity change events.
// Item events use per-number keys (see Key).
const ConnectivityKey = "CONN"

// EventKind classifies an unsolicited MCP event.
type EventKind uint8

const (
	// EventLoadActivated indicates a load turned on (level > 0).
	EventLoadActivated EventKind = iota

	// EventLoadDeactivated indicates a load turned off.
	EventLoadDeactivated

	// EventSwitchPressed indicates a switch was pressed.
	EventSwitchPressed

	// EventSwitchReleased indicates a switch was released.
	EventSwitchReleased

	// EventConnectivityChanged indicates the session gained or lost the
	// MCP. Synthesized by the session engine, never read off the wire.
	EventConnectivityChanged
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventLoadActivated:
		return "LOAD_ACTIVATED"
	case EventLoadDeactivated:
		return "LOAD_DEACTIVATED"
	case EventSwitchPressed:
		return "SWITCH_PRESSED"
	case EventSwitchReleased:
		return "SWITCH_RELEASED"
	case EventConnectivityChanged:
		return "CONNECTIVITY_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Event is one state-change notification. Item events carry the global
// item number; connectivity events carry the new state and, when the
// session went down, the reason.
type Event struct {
	Kind EventKind

	// Index is the global (board-spanning) item number.
	Index int

	// Level is the reported load level for EventLoadActivated, or
	// LevelUnknown when the event did not carry one.
	Level int

	// Connected is the new connectivity state for
	// EventConnectivityChanged.
	Connected bool

	// Reason explains a lost connection. Nil otherwise.
	Reason error
}

// Key returns the subscription registry key this event dispatches to.
func (e Event) Key() string {
	return Key(e.Kind, e.Index)
}

// Key builds the registry key for an event kind and item number, matching
// the wire spelling of the corresponding unsolicited line ("N003" for load
// 3 activated). Connectivity uses the fixed ConnectivityKey.
func Key(kind EventKind, index int) string {
	switch kind {
	case EventLoadActivated:
		return fmt.Sprintf("N%03d", index)
	case EventLoadDeactivated:
		return fmt.Sprintf("F%03d", index)
	case EventSwitchPressed:
		return fmt.Sprintf("P%03d", index)
	case EventSwitchReleased:
		return fmt.Sprintf("R%03d", index)
	case EventConnectivityChanged:
		return ConnectivityKey
	default:
		return fmt.Sprintf("?%03d", index)
	}
}

// String renders the event for logs.
func (e Event) String() string {
	switch e.Kind {
	case EventConnectivityChanged:
		if e.Connected {
			return "connected"
		}
		if e.Reason != nil {
			return fmt.Sprintf("disconnected: %v", e.Reason)
		}
		return "disconnected"
	case EventLoadActivated:
		if e.Level != LevelUnknown {
			return fmt.Sprintf("load %d activated at %d", e.Index, e.Level)
		}
		return fmt.Sprintf("load %d activated", e.Index)
	case EventLoadDeactivated:
		return fmt.Sprintf("load %d deactivated", e.Index)
	case EventSwitchPressed:
		return fmt.Sprintf("switch %d pressed", e.Index)
	case EventSwitchReleased:
		return fmt.Sprintf("switch %d released", e.Index)
	default:
		return fmt.Sprintf("event %d #%d", e.Kind, e.Index)
	}
}

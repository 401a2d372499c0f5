package log

import "time"

// Event represents one captured protocol event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the session's transport (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates line flow. Meaningful for CategoryLine only.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// URL is the connection URL (device path or socket://host:port).
	URL string `cbor:"5,keyasint,omitempty"`

	// Line is the CR-stripped wire line for CategoryLine events.
	Line string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these set for the other categories).
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Direction indicates the direction of line flow.
type Direction uint8

const (
	// DirectionIn indicates a line read from the MCP.
	DirectionIn Direction = 0
	// DirectionOut indicates a line written to the MCP.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLine indicates a protocol line crossing the wire.
	CategoryLine Category = 0
	// CategoryState indicates a connection or session state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "LINE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a transport connectivity change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a session lifecycle change.
	StateEntitySession StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors raised during protocol handling.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

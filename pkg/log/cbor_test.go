package log

import (
	"testing"
	"time"
)

func TestEncodeDecodeLineEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "8e2c7a1e-17a5-4a44-9c50-2f6a3c9d0b41",
		Direction:    DirectionOut,
		Category:     CategoryLine,
		URL:          "/dev/ttyUSB0",
		Line:         "^A005",
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if decoded.ConnectionID != event.ConnectionID {
		t.Errorf("ConnectionID = %q, want %q", decoded.ConnectionID, event.ConnectionID)
	}
	if decoded.Direction != DirectionOut {
		t.Errorf("Direction = %v, want DirectionOut", decoded.Direction)
	}
	if decoded.Category != CategoryLine {
		t.Errorf("Category = %v, want CategoryLine", decoded.Category)
	}
	if decoded.Line != "^A005" {
		t.Errorf("Line = %q, want %q", decoded.Line, "^A005")
	}
	if decoded.URL != "/dev/ttyUSB0" {
		t.Errorf("URL = %q, want %q", decoded.URL, "/dev/ttyUSB0")
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v (nanosecond precision)", decoded.Timestamp, event.Timestamp)
	}
}

func TestEncodeDecodeStateEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityConnection,
			OldState: "connected",
			NewState: "disconnected",
			Reason:   "read line: EOF",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if decoded.StateChange == nil {
		t.Fatal("StateChange = nil after round trip")
	}
	if decoded.StateChange.Entity != StateEntityConnection {
		t.Errorf("Entity = %v, want StateEntityConnection", decoded.StateChange.Entity)
	}
	if decoded.StateChange.NewState != "disconnected" {
		t.Errorf("NewState = %q, want %q", decoded.StateChange.NewState, "disconnected")
	}
	if decoded.StateChange.Reason != "read line: EOF" {
		t.Errorf("Reason = %q, want %q", decoded.StateChange.Reason, "read line: EOF")
	}
	if decoded.Line != "" {
		t.Errorf("Line = %q for state event, want empty", decoded.Line)
	}
}

func TestEncodeDecodeErrorEvent(t *testing.T) {
	event := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Category:     CategoryError,
		Error: &ErrorEventData{
			Message: "malformed hex digits",
			Context: "get_all_load_states",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error = nil after round trip")
	}
	if decoded.Error.Message != "malformed hex digits" {
		t.Errorf("Message = %q, want %q", decoded.Error.Message, "malformed hex digits")
	}
	if decoded.Error.Context != "get_all_load_states" {
		t.Errorf("Context = %q, want %q", decoded.Error.Context, "get_all_load_states")
	}
}

func TestOmittedFieldsStayCompact(t *testing.T) {
	minimal := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "c",
		Category:     CategoryLine,
		Line:         "^G",
	}
	full := minimal
	full.URL = "socket://127.0.0.1:9100"
	full.StateChange = &StateChangeEvent{NewState: "ready"}

	minData, err := EncodeEvent(minimal)
	if err != nil {
		t.Fatalf("EncodeEvent(minimal) error = %v", err)
	}
	fullData, err := EncodeEvent(full)
	if err != nil {
		t.Fatalf("EncodeEvent(full) error = %v", err)
	}

	if len(minData) >= len(fullData) {
		t.Errorf("minimal event (%d bytes) not smaller than full event (%d bytes)",
			len(minData), len(fullData))
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00, 0x01}); err == nil {
		t.Error("DecodeEvent(garbage) returned nil error")
	}
}

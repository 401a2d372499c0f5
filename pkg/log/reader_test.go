package log

import (
	"path/filepath"
	"testing"
	"time"
)

// captureFixture writes a small mixed capture and returns its path.
func captureFixture(t *testing.T, base time.Time) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.ljlog")
	writeCapture(t, path, []Event{
		{Timestamp: base, ConnectionID: "c1", Direction: DirectionOut, Category: CategoryLine, Line: "^G"},
		{Timestamp: base.Add(time.Second), ConnectionID: "c1", Direction: DirectionIn, Category: CategoryLine, Line: "0000000000FF"},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "c2", Direction: DirectionIn, Category: CategoryLine, Line: "P004"},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "c1", Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityConnection, NewState: "disconnected"}},
	})
	return path
}

func TestReaderFilterByDirection(t *testing.T) {
	path := captureFixture(t, time.Now().UTC())

	in := DirectionIn
	reader, err := NewFilteredReader(path, Filter{Direction: &in})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer reader.Close()

	events := readAll(t, reader)
	// The state event has zero-valued Direction (IN) and matches too.
	if len(events) != 3 {
		t.Fatalf("read %d events, want 3", len(events))
	}
	for _, e := range events {
		if e.Direction != DirectionIn {
			t.Errorf("event direction = %v, want IN", e.Direction)
		}
	}
}

func TestReaderFilterByCategory(t *testing.T) {
	path := captureFixture(t, time.Now().UTC())

	state := CategoryState
	reader, err := NewFilteredReader(path, Filter{Category: &state})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer reader.Close()

	events := readAll(t, reader)
	if len(events) != 1 {
		t.Fatalf("read %d state events, want 1", len(events))
	}
	if events[0].StateChange == nil || events[0].StateChange.NewState != "disconnected" {
		t.Errorf("state event = %+v, want disconnected transition", events[0])
	}
}

func TestReaderFilterByConnectionID(t *testing.T) {
	path := captureFixture(t, time.Now().UTC())

	reader, err := NewFilteredReader(path, Filter{ConnectionID: "c2"})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer reader.Close()

	events := readAll(t, reader)
	if len(events) != 1 {
		t.Fatalf("read %d events for c2, want 1", len(events))
	}
	if events[0].Line != "P004" {
		t.Errorf("Line = %q, want P004", events[0].Line)
	}
}

func TestReaderFilterByTimeWindow(t *testing.T) {
	base := time.Now().UTC()
	path := captureFixture(t, base)

	start := base.Add(500 * time.Millisecond)
	end := base.Add(2500 * time.Millisecond)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("NewFilteredReader() error = %v", err)
	}
	defer reader.Close()

	events := readAll(t, reader)
	if len(events) != 2 {
		t.Fatalf("read %d events in window, want 2", len(events))
	}
	if events[0].Line != "0000000000FF" || events[1].Line != "P004" {
		t.Errorf("window events = %q, %q", events[0].Line, events[1].Line)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.ljlog")); err == nil {
		t.Error("NewReader() for missing file returned nil error")
	}
}

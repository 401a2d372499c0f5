package litejet_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/litejet-protocol/litejet-go/internal/mockmcp"
	"github.com/litejet-protocol/litejet-go/pkg/log"
	"github.com/litejet-protocol/litejet-go/pkg/session"
	"github.com/litejet-protocol/litejet-go/pkg/subscription"
	"github.com/litejet-protocol/litejet-go/pkg/transport"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

func startMock(t *testing.T, marker byte, boards int) *mockmcp.Server {
	t.Helper()
	mcp := mockmcp.NewMCP(mockmcp.Config{Marker: marker, Boards: boards})
	server := mockmcp.NewServer(mcp, mockmcp.ServerConfig{Address: "127.0.0.1:0"})
	if err := server.Start(); err != nil {
		t.Fatalf("start mock MCP: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

func mockConfig(server *mockmcp.Server) session.Config {
	config := session.DefaultConfig(fmt.Sprintf("socket://%s", server.Addr()))
	config.Timeout = 500 * time.Millisecond
	config.Backoff = transport.BackoffConfig{
		Initial:    50 * time.Millisecond,
		Max:        250 * time.Millisecond,
		Multiplier: 2,
	}
	return config
}

func openSession(t *testing.T, server *mockmcp.Server) *session.Session {
	t.Helper()
	s := session.New(mockConfig(server))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// eventChan returns a handler feeding a buffered channel.
func eventChan() (chan wire.Event, subscription.Handler) {
	events := make(chan wire.Event, 32)
	return events, subscription.FuncHandler(func(event wire.Event) {
		events <- event
	})
}

func waitEvent(t *testing.T, events <-chan wire.Event) wire.Event {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return wire.Event{}
	}
}

func TestE2E_SingleBoardSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	server := startMock(t, '^', 1)
	s := openSession(t, server)
	ctx := context.Background()

	if s.Model() != "LiteJet" {
		t.Errorf("Model() = %q, want LiteJet", s.Model())
	}
	if s.BoardCount() != 1 {
		t.Errorf("BoardCount() = %d, want 1", s.BoardCount())
	}
	if s.Marker() != '^' {
		t.Errorf("Marker() = %q, want '^'", s.Marker())
	}

	events, handler := eventChan()
	s.OnLoadActivated(5, handler)
	s.OnLoadDeactivated(5, handler)
	s.OnSwitchPressed(12, handler)
	s.OnSwitchReleased(12, handler)
	defer s.Unsubscribe(handler)

	// Activating produces a dim report broadcast carrying the level.
	if err := s.ActivateLoad(ctx, 5); err != nil {
		t.Fatalf("ActivateLoad: %v", err)
	}
	event := waitEvent(t, events)
	if event.Kind != wire.EventLoadActivated || event.Index != 5 || event.Level != 99 {
		t.Errorf("event = %+v, want load 5 activated at 99", event)
	}

	level, err := s.GetLoadLevel(ctx, 5)
	if err != nil {
		t.Fatalf("GetLoadLevel: %v", err)
	}
	if level != 99 {
		t.Errorf("GetLoadLevel(5) = %d, want 99", level)
	}

	// The emulator accepts a ramp but applies the level immediately.
	if err := s.ActivateLoadAt(ctx, 7, 40, 2*time.Second); err != nil {
		t.Fatalf("ActivateLoadAt: %v", err)
	}
	level, err = s.GetLoadLevel(ctx, 7)
	if err != nil {
		t.Fatalf("GetLoadLevel: %v", err)
	}
	if level != 40 {
		t.Errorf("GetLoadLevel(7) = %d, want 40", level)
	}

	states, err := s.GetAllLoadStates(ctx)
	if err != nil {
		t.Fatalf("GetAllLoadStates: %v", err)
	}
	if len(states) != 40 {
		t.Errorf("load state count = %d, want 40", len(states))
	}
	if !states[5] || !states[7] || states[1] {
		t.Errorf("load states = %v, want 5 and 7 on, 1 off", states)
	}

	name, err := s.GetLoadName(ctx, 5)
	if err != nil {
		t.Fatalf("GetLoadName: %v", err)
	}
	if name != "Load #5" {
		t.Errorf("GetLoadName(5) = %q, want Load #5", name)
	}
	if name, _ := s.GetSceneName(ctx, 41); name != "Scene #41" {
		t.Errorf("GetSceneName(41) = %q, want Scene #41", name)
	}
	if name, _ := s.GetSwitchName(ctx, 96); name != "Switch #96" {
		t.Errorf("GetSwitchName(96) = %q, want Switch #96", name)
	}

	if err := s.PressSwitch(ctx, 12); err != nil {
		t.Fatalf("PressSwitch: %v", err)
	}
	event = waitEvent(t, events)
	if event.Kind != wire.EventSwitchPressed || event.Index != 12 {
		t.Errorf("event = %+v, want switch 12 pressed", event)
	}

	switchStates, err := s.GetAllSwitchStates(ctx)
	if err != nil {
		t.Fatalf("GetAllSwitchStates: %v", err)
	}
	if len(switchStates) != 138 {
		t.Errorf("switch state count = %d, want 138", len(switchStates))
	}
	if !switchStates[12] {
		t.Error("switch 12 not reported pressed")
	}

	if err := s.ReleaseSwitch(ctx, 12); err != nil {
		t.Fatalf("ReleaseSwitch: %v", err)
	}
	event = waitEvent(t, events)
	if event.Kind != wire.EventSwitchReleased || event.Index != 12 {
		t.Errorf("event = %+v, want switch 12 released", event)
	}

	if err := s.DeactivateLoad(ctx, 5); err != nil {
		t.Fatalf("DeactivateLoad: %v", err)
	}
	event = waitEvent(t, events)
	if event.Kind != wire.EventLoadDeactivated || event.Index != 5 {
		t.Errorf("event = %+v, want load 5 deactivated", event)
	}

	if err := s.ActivateScene(ctx, 3); !errors.Is(err, session.ErrScenesNotSupported) {
		t.Errorf("ActivateScene = %v, want ErrScenesNotSupported", err)
	}
}

func TestE2E_DualBoardPlusDialect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	server := startMock(t, '+', 2)
	s := openSession(t, server)
	ctx := context.Background()

	if s.Model() != "LiteJet 48" {
		t.Errorf("Model() = %q, want LiteJet 48", s.Model())
	}
	if s.BoardCount() != 2 {
		t.Errorf("BoardCount() = %d, want 2", s.BoardCount())
	}
	if s.Marker() != '+' {
		t.Errorf("Marker() = %q, want '+'", s.Marker())
	}

	// Load 45 lives on board 2 and goes out as a lowercase verb; the
	// emulator tracks it under its global number.
	if err := s.ActivateLoad(ctx, 45); err != nil {
		t.Fatalf("ActivateLoad(45): %v", err)
	}
	level, err := s.GetLoadLevel(ctx, 45)
	if err != nil {
		t.Fatalf("GetLoadLevel(45): %v", err)
	}
	if level != 99 {
		t.Errorf("GetLoadLevel(45) = %d, want 99", level)
	}

	states, err := s.GetAllLoadStates(ctx)
	if err != nil {
		t.Fatalf("GetAllLoadStates: %v", err)
	}
	if len(states) != 80 {
		t.Errorf("load state count = %d, want 80", len(states))
	}
	if !states[45] || states[5] {
		t.Errorf("load states = %v, want only 45 on", states)
	}

	if name, _ := s.GetSwitchName(ctx, 140); name != "Switch #140" {
		t.Errorf("GetSwitchName(140) = %q, want Switch #140", name)
	}

	if got := len(s.Loads()); got != 80 {
		t.Errorf("Loads() length = %d, want 80", got)
	}
	if got := len(s.Scenes()); got != 82 {
		t.Errorf("Scenes() length = %d, want 82", got)
	}
	if got := len(s.AllSwitches()); got != 276 {
		t.Errorf("AllSwitches() length = %d, want 276", got)
	}
}

func TestE2E_Reconnect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	server := startMock(t, '^', 1)
	addr := server.Addr().String()

	s := session.New(mockConfig(server))
	t.Cleanup(func() { s.Close() })

	connEvents, handler := eventChan()
	s.OnConnectedChanged(handler)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open session: %v", err)
	}

	event := waitEvent(t, connEvents)
	if !event.Connected {
		t.Fatalf("first connectivity event = %+v, want connected", event)
	}

	// Kill the panel out from under the session.
	server.Stop()
	event = waitEvent(t, connEvents)
	if event.Connected {
		t.Fatalf("connectivity event after stop = %+v, want disconnected", event)
	}
	if event.Reason == nil {
		t.Error("disconnect event carries no reason")
	}

	// Bring a fresh panel up on the same address; the session must probe
	// it and come back on its own.
	revived := mockmcp.NewServer(
		mockmcp.NewMCP(mockmcp.Config{Marker: '^', Boards: 1}),
		mockmcp.ServerConfig{Address: addr},
	)
	if err := revived.Start(); err != nil {
		t.Fatalf("restart mock MCP: %v", err)
	}
	t.Cleanup(revived.Stop)

	event = waitEvent(t, connEvents)
	if !event.Connected {
		t.Fatalf("connectivity event after restart = %+v, want connected", event)
	}
	if !s.Connected() {
		t.Error("session not connected after recovery")
	}

	if err := s.ActivateLoad(ctx, 3); err != nil {
		t.Fatalf("ActivateLoad after recovery: %v", err)
	}
	level, err := s.GetLoadLevel(ctx, 3)
	if err != nil {
		t.Fatalf("GetLoadLevel after recovery: %v", err)
	}
	if level != 99 {
		t.Errorf("GetLoadLevel(3) = %d, want 99", level)
	}
}

func TestE2E_CaptureRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	server := startMock(t, '^', 1)
	path := filepath.Join(t.TempDir(), "capture.ljlog")

	capture, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("create capture: %v", err)
	}

	config := mockConfig(server)
	config.ProtocolLogger = capture

	s := session.New(config)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Open(ctx); err != nil {
		t.Fatalf("open session: %v", err)
	}

	if _, err := s.GetLoadLevel(ctx, 5); err != nil {
		t.Fatalf("GetLoadLevel: %v", err)
	}

	connID := s.ConnectionID()
	s.Close()
	capture.Close()

	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer reader.Close()

	var sawProbe, sawQuery, sawQueryReply, sawReady bool
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read capture: %v", err)
		}
		if event.ConnectionID != connID {
			t.Errorf("event connection ID = %q, want %q", event.ConnectionID, connID)
		}
		switch {
		case event.Category == log.CategoryLine && event.Direction == log.DirectionOut && event.Line == "^G":
			sawProbe = true
		case event.Category == log.CategoryLine && event.Direction == log.DirectionOut && event.Line == "^F005":
			sawQuery = true
		case event.Category == log.CategoryLine && event.Direction == log.DirectionIn && event.Line == "00":
			sawQueryReply = true
		case event.Category == log.CategoryState && event.StateChange != nil &&
			event.StateChange.Entity == log.StateEntitySession && event.StateChange.NewState == "READY":
			sawReady = true
		}
	}

	if !sawProbe {
		t.Error("capture missing outbound detection probe ^G")
	}
	if !sawQuery {
		t.Error("capture missing outbound query ^F005")
	}
	if !sawQueryReply {
		t.Error("capture missing inbound reply 00")
	}
	if !sawReady {
		t.Error("capture missing session READY state change")
	}
}

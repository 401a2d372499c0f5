package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/litejet-protocol/litejet-go/pkg/log"
	"github.com/litejet-protocol/litejet-go/pkg/subscription"
	"github.com/litejet-protocol/litejet-go/pkg/transport"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// Session errors.
var (
	// ErrNotOpen indicates an operation on a session before Open.
	ErrNotOpen = errors.New("session not open")

	// ErrAlreadyOpen indicates a second Open on the same session.
	ErrAlreadyOpen = errors.New("session already open")

	// ErrClosed indicates the session was shut down with Close.
	ErrClosed = errors.New("session closed")

	// ErrTimeout indicates the MCP did not answer a request in time.
	ErrTimeout = errors.New("request timed out")

	// ErrNoMCP indicates detection found no MCP under either start marker.
	ErrNoMCP = errors.New("no MCP answered under either start marker")

	// ErrInvalidIndex indicates an item number outside the detected
	// addressable range.
	ErrInvalidIndex = errors.New("index out of range")

	// ErrInvalidLevel indicates a load level outside 0..99.
	ErrInvalidLevel = errors.New("level out of range")

	// ErrScenesNotSupported indicates a scene command, which MCP firmware
	// does not accept over the serial interface.
	ErrScenesNotSupported = errors.New("scene commands not supported by MCP firmware")
)

// Model names reported by Model after detection.
const (
	// ModelSingle is a single-board system.
	ModelSingle = "LiteJet"

	// ModelDual is a dual-board 48-load system, detected when the second
	// board answers the lowercase bulk status probe.
	ModelDual = "LiteJet 48"
)

const (
	// DefaultTimeout bounds each request awaiting an MCP reply.
	DefaultTimeout = 1 * time.Second

	// DefaultDispatchBuffer is the event queue length between the reader
	// and the dispatcher.
	DefaultDispatchBuffer = 32
)

// State is the session lifecycle state.
type State int32

const (
	// StateNew is a session that has not been opened yet.
	StateNew State = iota

	// StateOpening is a session running transport setup and detection.
	StateOpening

	// StateReady is an open session with a live MCP.
	StateReady

	// StateDown is an open session whose line or MCP is currently lost.
	// Operations still run and trigger reopen attempts.
	StateDown

	// StateClosed is a session shut down with Close, permanently.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateOpening:
		return "OPENING"
	case StateReady:
		return "READY"
	case StateDown:
		return "DOWN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Session.
type Config struct {
	// URL selects the transport: a serial device path ("/dev/ttyS0") or
	// "socket://host:port". Ignored when Opener is set.
	URL string

	// Opener overrides URL with a custom stream factory.
	Opener transport.Opener

	// Timeout bounds each request awaiting a reply (default: 1s). Also
	// the per-probe timeout during detection, where it is the signal that
	// distinguishes dialects and board counts.
	Timeout time.Duration

	// OpenTimeout bounds transport establishment (default: 10s).
	OpenTimeout time.Duration

	// DispatchBuffer is the event queue length between the reader and the
	// dispatcher (default: 32). A full queue drops events.
	DispatchBuffer int

	// Backoff paces reopen attempts after read failures. Zero fields take
	// the transport defaults.
	Backoff transport.BackoffConfig

	// Logger receives debug and warning output. Nil discards.
	Logger *slog.Logger

	// ProtocolLogger captures protocol traffic and state changes. Nil
	// disables capture.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default session configuration for a
// connection URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		Timeout:        DefaultTimeout,
		OpenTimeout:    transport.DefaultOpenTimeout,
		DispatchBuffer: DefaultDispatchBuffer,
	}
}

// connSignal is one transport liveness hint consumed by the supervisor.
type connSignal struct {
	up     bool
	reason error
}

// Session is one client session with an MCP. Create with New, start with
// Open. All methods are safe for concurrent use.
type Session struct {
	config Config
	logger *slog.Logger
	plog   log.Logger
	connID string

	conn     *transport.Connection
	registry *subscription.Registry
	backoff  *transport.Backoff

	state  atomic.Int32
	marker atomic.Uint32

	// Written once during Open, read-only afterwards.
	boards int
	model  string

	// cmd is the command slot: held for the full duration of one
	// write(+reply) exchange, making requests strictly sequential.
	cmd chan struct{}

	replyMu sync.Mutex
	replyCh chan string

	dispatch chan wire.Event
	signals  chan connSignal

	closeCh   chan struct{}
	closeOnce sync.Once
}

// New creates a session from config. The transport is not touched until
// Open.
func New(config Config) *Session {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = transport.DefaultOpenTimeout
	}
	if config.DispatchBuffer <= 0 {
		config.DispatchBuffer = DefaultDispatchBuffer
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	plog := config.ProtocolLogger
	if plog == nil {
		plog = log.NoopLogger{}
	}

	backoff := transport.NewBackoff()
	if config.Backoff != (transport.BackoffConfig{}) {
		backoff = transport.NewBackoffWithConfig(config.Backoff)
	}

	s := &Session{
		config:   config,
		logger:   logger,
		plog:     plog,
		connID:   uuid.NewString(),
		registry: subscription.NewRegistry(logger),
		backoff:  backoff,
		cmd:      make(chan struct{}, 1),
		dispatch: make(chan wire.Event, config.DispatchBuffer),
		signals:  make(chan connSignal, 8),
		closeCh:  make(chan struct{}),
	}

	opener := config.Opener
	if opener == nil {
		opener = transport.OpenerForURL(config.URL)
	}
	s.conn = transport.NewConnection(transport.Config{
		Opener:      opener,
		OpenTimeout: config.OpenTimeout,
	}, s.onTransportState)

	return s
}

// Open establishes the transport and detects the MCP: first the start
// marker ('^' probed before '+', settled by which bulk status query gets
// an answer), then the board count (second-board probe; a timeout there
// means a single board and is not an error). Both markers timing out is
// fatal: Open fails with ErrNoMCP and the session is left closed with the
// transport torn down.
func (s *Session) Open(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateNew), int32(StateOpening)) {
		if s.State() == StateClosed {
			return ErrClosed
		}
		return ErrAlreadyOpen
	}
	s.logSessionState(StateNew, StateOpening, "")

	if err := s.conn.Open(ctx); err != nil {
		s.Close()
		return err
	}

	go s.readLoop()
	go s.dispatchLoop()
	go s.superviseLoop()

	marker, err := s.detectMarker(ctx)
	if err != nil {
		s.Close()
		return err
	}
	s.marker.Store(uint32(marker))

	boards, model, err := s.detectBoards(ctx, marker)
	if err != nil {
		s.Close()
		return err
	}
	s.boards = boards
	s.model = model

	s.state.Store(int32(StateReady))
	s.logSessionState(StateOpening, StateReady, "")
	s.logger.Info("session open",
		"url", s.config.URL,
		"marker", string(marker),
		"model", model,
		"boards", boards)
	s.emitConnectivity(true, nil)
	return nil
}

// Close shuts the session down: the transport is torn down, the reader,
// dispatcher and supervisor exit, and pending and future operations fail
// with ErrClosed. Idempotent. No connectivity event is emitted for the
// shutdown itself.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		old := State(s.state.Swap(int32(StateClosed)))
		close(s.closeCh)
		s.conn.Close()
		s.logSessionState(old, StateClosed, "")
		s.logger.Debug("session closed")
	})
	return nil
}

// detectMarker finds the start marker the MCP firmware speaks by probing
// a bulk load status query under each candidate in turn. A reply settles
// the dialect; a timeout moves on to the next candidate; any other error
// means the transport itself is broken and aborts the open.
func (s *Session) detectMarker(ctx context.Context) (byte, error) {
	for _, marker := range []byte{wire.MarkerCaret, wire.MarkerPlus} {
		probe := wire.GetAllLoadStates().Encode(marker)
		_, err := s.request(ctx, probe, s.config.Timeout)
		if err == nil {
			s.logger.Debug("start marker detected", "marker", string(marker))
			return marker, nil
		}
		if errors.Is(err, ErrTimeout) {
			continue
		}
		return 0, err
	}
	s.logError(ErrNoMCP, "detect")
	return 0, ErrNoMCP
}

// detectBoards probes the second board with the lowercase bulk status
// query. An answer means a dual-board system; a timeout means the second
// board is absent, which is the normal single-board case.
func (s *Session) detectBoards(ctx context.Context, marker byte) (int, string, error) {
	probe := wire.GetAllLoadStates().ForBoard(2).Encode(marker)
	_, err := s.request(ctx, probe, s.config.Timeout)
	switch {
	case err == nil:
		return 2, ModelDual, nil
	case errors.Is(err, ErrTimeout):
		return 1, ModelSingle, nil
	default:
		return 0, "", err
	}
}

// State returns the session lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connected reports whether the session is open with a live MCP.
func (s *Session) Connected() bool {
	return s.State() == StateReady
}

// Marker returns the detected start marker, or 0 before a successful
// Open.
func (s *Session) Marker() byte {
	return byte(s.marker.Load())
}

// Model returns the detected system model name. Valid after a successful
// Open.
func (s *Session) Model() string {
	return s.model
}

// BoardCount returns the detected number of boards (1 or 2). Valid after
// a successful Open.
func (s *Session) BoardCount() int {
	return s.boards
}

// ConnectionID returns the identifier stamped on this session's protocol
// capture events.
func (s *Session) ConnectionID() string {
	return s.connID
}

// opened gates operations on the lifecycle: they run while the session is
// open, even with the line currently down (the attempt is what triggers a
// reopen).
func (s *Session) opened() error {
	switch s.State() {
	case StateReady, StateDown:
		return nil
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotOpen
	}
}

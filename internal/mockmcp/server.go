package mockmcp

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
)

// ServerConfig holds the TCP listener parameters.
type ServerConfig struct {
	// Address to listen on, e.g. "127.0.0.1:2025". Port 0 picks a free
	// port; read it back through Addr.
	Address string

	// Logger for connection lifecycle logging. Nil discards.
	Logger *slog.Logger
}

// Server exposes an emulated MCP over TCP. Every connected client sees
// the same panel: commands from one client change state and the
// resulting broadcasts fan out to all of them, just like multiple
// taps on the same serial line.
type Server struct {
	config ServerConfig
	mcp    *MCP
	logger *slog.Logger

	listener net.Listener

	conns   map[*serverConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewServer wraps an emulated panel in a TCP server.
func NewServer(mcp *MCP, config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		config: config,
		mcp:    mcp,
		logger: logger,
		conns:  make(map[*serverConn]struct{}),
	}
	mcp.AddListener(s.broadcast)
	return s
}

// Start begins listening and accepting clients.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("mock MCP listening",
		"addr", listener.Addr().String(),
		"marker", string(s.mcp.Marker()),
		"boards", s.mcp.Boards())
	return nil
}

// Stop closes the listener and all client connections, then waits for
// the handler goroutines to finish.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	s.logger.Info("mock MCP stopped")
}

// Addr returns the bound listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of connected clients.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Warn("accept failed", "error", err)
			}
			continue
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	sconn := &serverConn{conn: conn}
	s.connsMu.Lock()
	// A client accepted in the instant before Stop would miss the
	// shutdown sweep; turn it away instead of serving it.
	if !s.running.Load() {
		s.connsMu.Unlock()
		sconn.close()
		return
	}
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()
	s.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	sconn.readLoop(s.mcp)

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()
	sconn.close()
	s.logger.Info("client disconnected", "remote", conn.RemoteAddr().String())
}

// broadcast fans one unsolicited line out to every connected client.
func (s *Server) broadcast(line string) {
	s.connsMu.RLock()
	conns := make([]*serverConn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.RUnlock()

	for _, conn := range conns {
		if err := conn.writeLine(line); err != nil {
			s.logger.Debug("broadcast write failed",
				"remote", conn.conn.RemoteAddr().String(),
				"error", err)
		}
	}
}

// serverConn is one client connection. Replies and broadcasts share the
// socket, so writes serialize on writeMu.
type serverConn struct {
	conn      net.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *serverConn) writeLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write([]byte(line + "\r"))
	return err
}

func (c *serverConn) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// readLoop feeds received bytes through the interpreter. Commands may
// arrive split or glued together, so leftovers stay buffered until the
// interpreter can consume them.
func (c *serverConn) readLoop(mcp *MCP) {
	var buf []byte
	chunk := make([]byte, 256)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for len(buf) > 0 {
				consumed, response := mcp.HandleInput(buf)
				if consumed == 0 {
					break
				}
				buf = buf[consumed:]
				if response == "" {
					continue
				}
				if err := c.writeLine(response); err != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

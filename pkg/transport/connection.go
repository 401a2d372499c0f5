package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Connection errors.
var (
	// ErrConnectionClosed indicates the connection was shut down with Close.
	ErrConnectionClosed = errors.New("connection closed")
)

// DefaultOpenTimeout bounds stream opens triggered from inside ReadLine or
// WriteLine, where no caller context is available.
const DefaultOpenTimeout = 10 * time.Second

// StateHandler observes connectivity transitions: connected=true after the
// stream opens, connected=false with the triggering error after it fails or
// is closed. Handlers run synchronously on the goroutine that hit the
// transition and must not block.
type StateHandler func(connected bool, reason error)

// Config configures a Connection.
type Config struct {
	// Opener produces the underlying byte stream. Required.
	Opener Opener

	// OpenTimeout bounds opens triggered on demand (default: 10s).
	OpenTimeout time.Duration
}

// Connection frames CR-terminated ASCII lines over a stream produced by an
// Opener.
//
// The stream opens on first use and, after a failure, reopens on the next
// use; the owner paces those retries with a Backoff. Reads and writes may
// run concurrently (unsolicited lines arrive at any time); writes are
// serialized among themselves. Any read or write failure tears the stream
// down and notifies the state handler before the error is returned.
type Connection struct {
	config  Config
	handler StateHandler

	mu     sync.Mutex
	stream io.ReadWriteCloser
	reader *bufio.Reader
	closed bool

	writeMu sync.Mutex
}

// NewConnection creates a connection (stream not yet open). handler may be
// nil.
func NewConnection(config Config, handler StateHandler) *Connection {
	if config.OpenTimeout == 0 {
		config.OpenTimeout = DefaultOpenTimeout
	}

	return &Connection{
		config:  config,
		handler: handler,
	}
}

// Open establishes the stream eagerly. ReadLine and WriteLine open on
// demand, so calling Open is optional; it exists to surface setup failures
// under the caller's context instead of inside a later read.
func (c *Connection) Open(ctx context.Context) error {
	_, _, err := c.ensure(ctx)
	return err
}

// Connected reports whether a live stream is currently held.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil && !c.closed
}

// ReadLine blocks until one CR-terminated line arrives and returns it
// without the terminator. Leading and trailing whitespace is stripped and
// blank lines are skipped, which also absorbs the LF residue of CRLF
// framing. A nil error means a non-empty line.
func (c *Connection) ReadLine() (string, error) {
	for {
		stream, reader, err := c.ensure(nil)
		if err != nil {
			return "", err
		}

		chunk, err := reader.ReadString('\r')
		if err != nil {
			return "", c.fail(stream, fmt.Errorf("read line: %w", err))
		}

		line := strings.TrimSpace(chunk)
		if line == "" {
			continue
		}
		return line, nil
	}
}

// WriteLine appends the CR terminator and writes the line. Concurrent
// writers are serialized so lines never interleave on the stream.
func (c *Connection) WriteLine(line string) error {
	stream, _, err := c.ensure(nil)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := io.WriteString(stream, line+"\r"); err != nil {
		return c.fail(stream, fmt.Errorf("write line: %w", err))
	}
	return nil
}

// Close tears down the stream and fails all further use with
// ErrConnectionClosed. Idempotent. A blocked ReadLine is unblocked by the
// underlying close; an in-flight open delays Close until it resolves.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stream := c.stream
	c.stream = nil
	c.reader = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
		c.notify(false, ErrConnectionClosed)
	}
	return nil
}

// ensure returns the live stream, opening it if needed. A nil ctx applies
// the configured OpenTimeout.
func (c *Connection) ensure(ctx context.Context) (io.ReadWriteCloser, *bufio.Reader, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, ErrConnectionClosed
	}
	if c.stream != nil {
		stream, reader := c.stream, c.reader
		c.mu.Unlock()
		return stream, reader, nil
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), c.config.OpenTimeout)
		defer cancel()
	}

	stream, err := c.config.Opener(ctx)
	if err != nil {
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("transport open: %w", err)
	}

	c.stream = stream
	c.reader = bufio.NewReader(stream)
	reader := c.reader
	c.mu.Unlock()

	c.notify(true, nil)
	return stream, reader, nil
}

// fail tears down a stream after an I/O error and returns the error the
// caller should surface. Only the first failure of a given stream closes
// and notifies; Close racing with a failure wins and the error collapses
// to ErrConnectionClosed.
func (c *Connection) fail(stream io.ReadWriteCloser, err error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	if c.stream != stream {
		// Another goroutine already handled this stream's failure.
		c.mu.Unlock()
		return err
	}
	c.stream = nil
	c.reader = nil
	c.mu.Unlock()

	stream.Close()
	c.notify(false, err)
	return err
}

func (c *Connection) notify(connected bool, reason error) {
	if c.handler != nil {
		c.handler(connected, reason)
	}
}

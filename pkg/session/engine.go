package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/litejet-protocol/litejet-go/pkg/log"
	"github.com/litejet-protocol/litejet-go/pkg/transport"
	"github.com/litejet-protocol/litejet-go/pkg/wire"
)

// readLoop pulls lines off the transport for the life of the session.
// Read failures are paced with the backoff; the reopen itself happens
// lazily inside the next ReadLine. The loop never touches the command
// slot, so a stuck request can never wedge the reader.
func (s *Session) readLoop() {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			if errors.Is(err, transport.ErrConnectionClosed) {
				return
			}
			delay := s.backoff.Next()
			s.logger.Debug("read failed, retrying", "error", err, "delay", delay)
			select {
			case <-s.closeCh:
				return
			case <-time.After(delay):
			}
			continue
		}
		s.backoff.Reset()
		s.handleLine(line)
	}
}

// handleLine classifies one received line. Events go to the dispatch
// queue; a reply wakes the single outstanding waiter, or is discarded
// when nothing waits for it (a late answer to a request that already
// timed out).
func (s *Session) handleLine(line string) {
	s.logLine(log.DirectionIn, line)

	decoded := wire.DecodeLine(line, s.Marker())
	if decoded.Kind == wire.DecodedEvent {
		s.logger.Debug("event", "line", line, "event", decoded.Event.String())
		s.enqueue(decoded.Event)
		s.markAlive()
		return
	}

	s.replyMu.Lock()
	ch := s.replyCh
	s.replyCh = nil
	s.replyMu.Unlock()

	if ch == nil {
		s.logger.Debug("discarding unmatched reply", "line", line)
		return
	}
	ch <- line
	s.markAlive()
}

// markAlive nudges the supervisor when traffic arrives while the session
// is marked down: received lines are the earliest sign the MCP is back.
func (s *Session) markAlive() {
	if s.State() == StateDown {
		s.signal(connSignal{up: true})
	}
}

// dispatchLoop delivers queued events to subscribers, one at a time, in
// arrival order.
func (s *Session) dispatchLoop() {
	for {
		select {
		case <-s.closeCh:
			return
		case event := <-s.dispatch:
			s.registry.Notify(event)
		}
	}
}

// enqueue hands an event to the dispatcher without ever blocking the
// reader. A full queue drops the event.
func (s *Session) enqueue(event wire.Event) {
	select {
	case s.dispatch <- event:
	default:
		s.logger.Warn("dispatch queue full, dropping event", "event", event.String())
	}
}

// superviseLoop owns connectivity. Down signals demote immediately; up
// signals are only believed after a bulk status probe proves the MCP is
// actually answering, so a reopened but dead line stays DOWN. The probe
// takes the command slot, which the reader never does, keeping the two
// loops free of each other.
func (s *Session) superviseLoop() {
	for {
		select {
		case <-s.closeCh:
			return
		case sig := <-s.signals:
			if !sig.up {
				s.setConnected(false, sig.reason)
				continue
			}
			if s.State() != StateDown {
				continue
			}
			if err := s.validate(); err != nil {
				s.logger.Debug("liveness probe failed", "error", err)
				continue
			}
			s.setConnected(true, nil)
		}
	}
}

// validate proves MCP liveness with a bulk load status query.
func (s *Session) validate() error {
	probe := wire.GetAllLoadStates().Encode(s.Marker())
	_, err := s.request(context.Background(), probe, s.config.Timeout)
	return err
}

// onTransportState receives transport transitions. It must not block: it
// runs on whatever goroutine hit the transition, reader included.
func (s *Session) onTransportState(connected bool, reason error) {
	state := "DOWN"
	why := ""
	if connected {
		state = "UP"
	}
	if reason != nil {
		why = reason.Error()
	}
	s.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Category:     log.CategoryState,
		URL:          s.config.URL,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			NewState: state,
			Reason:   why,
		},
	})
	s.signal(connSignal{up: connected, reason: reason})
}

// signal queues a liveness hint for the supervisor. Signals are hints,
// not a ledger; when the queue is full the newest one is dropped and the
// next transition re-delivers the truth.
func (s *Session) signal(sig connSignal) {
	select {
	case s.signals <- sig:
	default:
	}
}

// setConnected flips the session between READY and DOWN and emits the
// connectivity event. The compare-and-swap makes repeated signals in the
// same direction no-ops, so subscribers only ever see edges.
func (s *Session) setConnected(connected bool, reason error) {
	if connected {
		if !s.state.CompareAndSwap(int32(StateDown), int32(StateReady)) {
			return
		}
		s.logSessionState(StateDown, StateReady, "")
	} else {
		if !s.state.CompareAndSwap(int32(StateReady), int32(StateDown)) {
			return
		}
		why := ""
		if reason != nil {
			why = reason.Error()
		}
		s.logSessionState(StateReady, StateDown, why)
	}
	s.logger.Info("mcp connectivity changed", "connected", connected, "reason", reason)
	s.emitConnectivity(connected, reason)
}

func (s *Session) emitConnectivity(connected bool, reason error) {
	s.enqueue(wire.Event{
		Kind:      wire.EventConnectivityChanged,
		Connected: connected,
		Reason:    reason,
	})
}

// acquire takes the command slot.
func (s *Session) acquire(ctx context.Context) error {
	if s.State() == StateClosed {
		return ErrClosed
	}
	select {
	case s.cmd <- struct{}{}:
		return nil
	case <-s.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) release() {
	<-s.cmd
}

// fire writes one command line and does not wait for anything back.
func (s *Session) fire(ctx context.Context, line string) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	return s.writeLine(line)
}

// request writes one command line and waits for the reply. The command
// slot is held for the whole exchange and the reply slot is fresh before
// the write goes out, so the next line classified as a reply belongs to
// this request. A timeout abandons the exchange with ErrTimeout; if the
// answer still shows up later the reader discards it.
func (s *Session) request(ctx context.Context, line string, timeout time.Duration) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()

	ch := make(chan string, 1)
	s.replyMu.Lock()
	s.replyCh = ch
	s.replyMu.Unlock()
	defer s.clearReply()

	if err := s.writeLine(line); err != nil {
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		return reply, nil
	case <-timer.C:
		s.logger.Debug("request timed out", "line", line, "timeout", timeout)
		return "", ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.closeCh:
		return "", ErrClosed
	}
}

func (s *Session) clearReply() {
	s.replyMu.Lock()
	s.replyCh = nil
	s.replyMu.Unlock()
}

func (s *Session) writeLine(line string) error {
	s.logLine(log.DirectionOut, line)
	if err := s.conn.WriteLine(line); err != nil {
		s.logError(err, "write")
		return fmt.Errorf("send %q: %w", line, err)
	}
	return nil
}

func (s *Session) logLine(direction log.Direction, line string) {
	s.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    direction,
		Category:     log.CategoryLine,
		Line:         line,
	})
}

func (s *Session) logSessionState(from, to State, reason string) {
	s.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Category:     log.CategoryState,
		URL:          s.config.URL,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (s *Session) logError(err error, context string) {
	s.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	})
}

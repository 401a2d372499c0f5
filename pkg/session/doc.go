// Package session implements the MCP session engine: lifecycle, dialect
// and board detection, serialized command exchange, and unsolicited event
// dispatch.
//
// A Session wraps one transport.Connection speaking the half-duplex MCP
// line protocol. The protocol has no request correlation, so at most one
// command may be in flight; all operations serialize on one command slot
// and a reply is matched to the single outstanding waiter purely by
// arrival order.
//
// # Lifecycle
//
// A Session is single use. Open establishes the transport, starts the
// reader and dispatcher goroutines and runs detection: the start marker
// ('^', then '+' on timeout) and the board count (a second-board probe
// that answers on dual-board systems). A failed Open leaves the session
// closed, the transport torn down and no goroutines behind; create a new
// Session to retry.
//
// After a read failure the session keeps running: the reader paces reopen
// attempts with an exponential backoff while operations fail fast or time
// out. Connectivity is announced through edge-triggered
// wire.EventConnectivityChanged events, and a reopened transport is
// probed with a bulk status query before the session is declared live
// again.
//
// # Events
//
// Unsolicited lines decode into wire.Events and flow through a bounded
// queue to a single dispatcher goroutine, which preserves arrival order.
// When the queue is full the newest event is dropped with a warning
// rather than stalling the reader. Handlers run on the dispatcher
// goroutine; slow handlers delay later events, not the protocol itself.
//
// Close is idempotent and silent: pending operations fail with ErrClosed
// and no final connectivity event is guaranteed.
package session

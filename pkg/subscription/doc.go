// Package subscription routes unsolicited MCP events to handlers.
//
// Handlers register against an event key, the wire spelling of the
// unsolicited line they care about ("N003" for load 3 activated, "CONN"
// for connectivity changes). A key's handlers run in the order they were
// added.
//
// # Ownership
//
// The registry holds handlers by reference and never owns them: a caller
// keeps its own handler value and passes it back to Unsubscribe, which
// removes it from every key at once. Closures must be wrapped with
// FuncHandler so the same comparable value can be presented twice.
//
// # Isolation
//
// A panicking handler is logged and skipped; it never prevents delivery to
// the handlers after it, nor of later events.
package subscription

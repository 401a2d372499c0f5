// Package mockmcp emulates an MCP for tests and local development.
//
// MCP is the interpreter: it consumes the command byte stream one
// command at a time, resynchronizing on the start marker, keeps real
// load and switch state per board, and broadcasts the same unsolicited
// lines hardware would. Server wraps it in a TCP listener so a session
// can reach it through a socket:// URL.
//
// The emulator is deliberately permissive about item numbers and has no
// time dimension: ramp rates are accepted and ignored, and levels take
// effect immediately.
package mockmcp

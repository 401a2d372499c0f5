// Package transport provides the line-oriented connection under a LiteJet
// session.
//
// The MCP speaks a half-duplex ASCII protocol over RS-232: commands and
// replies are single lines terminated by a carriage return. The transport
// layer handles:
//   - Opening the underlying stream (serial port or TCP socket)
//   - CR-terminated line reads and writes
//   - Failure marking and state-change notification
//   - Reconnect pacing via exponential backoff
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│     ASCII command lines        │
//	├────────────────────────────────┤
//	│   CR-terminated line framing   │
//	├────────────────────────────────┤
//	│  Serial (19200 8N1) or TCP     │
//	└────────────────────────────────┘
//
// # Stream Selection
//
// Open accepts either a device path ("/dev/ttyUSB0", opened at 19200 baud)
// or a "socket://host:port" URL (plain TCP, used against emulators and
// serial-over-IP bridges). Callers with other needs supply their own Opener.
//
// # Failure Model
//
// A serial line gives no connection handshake and no EOF on unplug; the
// transport treats any read or write error as the line going away. The
// connection marks itself failed, notifies the state handler once, and
// leaves reopening to the owner, which paces retries with Backoff.
package transport

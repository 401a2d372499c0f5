// Package log provides structured protocol capture for LiteJet sessions.
//
// This package defines the Logger interface and Event types for recording
// protocol traffic: every line read from or written to the MCP, connection
// and session state changes, and errors layered on top of them. It is
// separate from operational logging (slog) - protocol capture produces a
// complete machine-readable trace for debugging dimmer behavior after the
// fact.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field captures: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("litejet.ljlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Capture files are a CBOR event stream, conventionally with the .ljlog
// extension. Reader streams them back, optionally filtered.
package log

// Package wire implements the LiteJet line protocol: encoding commands to
// their wire text and classifying received lines as events or replies.
//
// The MCP speaks a half-duplex, line-oriented ASCII protocol. Every line is
// terminated by a carriage return. Outbound commands are a start marker, a
// verb letter, and zero-padded decimal fields:
//
//	^A003        activate load 3
//	^E0075004    set load 7 to level 50 over rate step 4
//	^G           bulk load status for this board
//
// The start marker is firmware-dependent ('^' or '+') and is detected once
// per session. Addressing the second board of a dual-board system uses the
// lowercase verb with a board-local index.
//
// # Inbound Classification
//
// Lines arriving from the MCP are either unsolicited events or the reply to
// the single outstanding command:
//
//	Piii / Riii    switch iii pressed / released
//	Niii / Fiii    load iii activated / deactivated
//	^Kiiill        load iii changed to level ll (00 means deactivated)
//
// Anything else is handed to whichever caller is awaiting a reply. The
// classifier never fails: a malformed line is simply not an event, and the
// correlating caller decides what to make of it.
//
// # Bulk State Replies
//
// Bulk status replies ('G' and 'H') are hexadecimal strings where each byte
// expands to eight boolean flags, least-significant bit first. DecodeBits
// converts a span of such a reply into a map keyed by 1-based item number.
package wire

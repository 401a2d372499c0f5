package wire

import (
	"fmt"
	"strconv"
)

// ProtocolError reports wire input that does not conform to the protocol.
type ProtocolError struct {
	// Line is the offending wire text.
	Line string

	// Msg describes what was wrong with it.
	Msg string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("litejet: %s: %q", e.Msg, e.Line)
}

// DecodeBits expands a hex status reply into boolean flags, eight per
// byte pair, least-significant bit first, assigned to consecutive item
// numbers starting at outputFirst. Byte pairs begin at digit offsets
// first, first+2, and so on below last. Bulk status replies ('G' and
// 'H') are decoded this way. Malformed hex fails with a ProtocolError.
func DecodeBits(reply string, first, last, outputFirst int) (map[int]bool, error) {
	out := make(map[int]bool)
	number := outputFirst
	for digit := first; digit < last; digit += 2 {
		if digit+2 > len(reply) {
			return nil, &ProtocolError{Line: reply, Msg: "bit state reply truncated"}
		}
		value, err := strconv.ParseUint(reply[digit:digit+2], 16, 8)
		if err != nil {
			return nil, &ProtocolError{Line: reply, Msg: "bit state reply is not hex"}
		}
		for bit := 0; bit < 8; bit++ {
			out[number] = value&(1<<bit) != 0
			number++
		}
	}
	return out, nil
}

// EncodeBits is the inverse of DecodeBits: it packs the states of count
// consecutive items starting at firstNumber into a hex string, eight items
// per byte pair, least-significant bit first. Items absent from states are
// off. The emulator uses this to build bulk status replies.
func EncodeBits(states map[int]bool, firstNumber, count int) string {
	byteCount := (count + 7) / 8
	buf := make([]byte, 0, byteCount*2)
	number := firstNumber
	for i := 0; i < byteCount; i++ {
		var value byte
		for bit := 0; bit < 8; bit++ {
			if states[number] {
				value |= 1 << bit
			}
			number++
		}
		buf = append(buf, hexDigit(value>>4), hexDigit(value&0x0f))
	}
	return string(buf)
}

func hexDigit(v byte) byte {
	if v < 10 {
		return '0' + v
	}
	return 'A' + v - 10
}

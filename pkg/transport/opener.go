package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/tarm/serial"
)

// SerialBaud is the fixed MCP line rate. The board offers no negotiation.
const SerialBaud = 19200

// socketScheme prefixes URLs that select the TCP opener.
const socketScheme = "socket://"

// Opener establishes the byte stream under a Connection. It is called on
// first use and again after a failure when the owner retries.
type Opener func(ctx context.Context) (io.ReadWriteCloser, error)

// SerialOpener returns an Opener for a local serial device such as
// /dev/ttyUSB0, configured for the MCP's 19200 baud 8N1 framing.
func SerialOpener(device string) Opener {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		port, err := serial.OpenPort(&serial.Config{Name: device, Baud: SerialBaud})
		if err != nil {
			return nil, fmt.Errorf("open serial port %s: %w", device, err)
		}
		return port, nil
	}
}

// TCPOpener returns an Opener dialing a TCP address ("host:port"). Used
// against the mock MCP and serial-over-IP bridges.
func TCPOpener(address string) Opener {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		dialer := &net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", address, err)
		}
		return conn, nil
	}
}

// OpenerForURL selects an Opener for a connection URL: "socket://host:port"
// dials TCP, anything else is treated as a serial device path.
func OpenerForURL(url string) Opener {
	if address, ok := strings.CutPrefix(url, socketScheme); ok {
		return TCPOpener(address)
	}
	return SerialOpener(url)
}

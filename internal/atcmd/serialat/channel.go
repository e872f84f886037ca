// Package serialat implements the atcmd ports over a serial link to an
// AT-command modem. It owns the line framing: commands go out as
// "AT<payload>\r\n", responses are read until the modem's final result
// code, and unsolicited lines observed in between are buffered for the
// notification source.
package serialat

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"

	"github.com/radio-control/wsc/internal/atcmd"
)

// Options configures a serial-backed channel.
type Options struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0.
	Device string

	// Baud is the line rate.
	Baud int

	// ReadTimeout bounds a single port read.
	ReadTimeout time.Duration

	// ExchangeTimeout bounds a whole command exchange. Zero means the
	// port is expected to block until data arrives; a read that then
	// returns no data reports the would-block outcome.
	ExchangeTimeout time.Duration
}

// Channel is a blocking-or-timeout command channel over a serial port.
// It is owned exclusively by one station adapter; concurrent callers must
// serialize access at a higher layer.
type Channel struct {
	rw              io.ReadWriter
	closer          io.Closer
	exchangeTimeout time.Duration

	// Raw bytes read from the port but not yet consumed as lines.
	rbuf bytes.Buffer

	// Classified unsolicited notifications awaiting PollNotification.
	pending []atcmd.Notification
}

// ExchangeTimeoutError reports that a command exchange did not complete
// within the configured budget.
type ExchangeTimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *ExchangeTimeoutError) Error() string {
	return fmt.Sprintf("command %s: no final result within %v", e.Command, e.Timeout)
}

// Open opens the serial device and returns a channel over it.
func Open(opts Options) (*Channel, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        opts.Device,
		Baud:        opts.Baud,
		ReadTimeout: opts.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial device %s: %w", opts.Device, err)
	}

	ch := NewChannel(port, opts.ExchangeTimeout)
	ch.closer = port
	return ch, nil
}

// NewChannel builds a channel over an existing read/writer. Tests use this
// to script exchanges without hardware.
func NewChannel(rw io.ReadWriter, exchangeTimeout time.Duration) *Channel {
	return &Channel{
		rw:              rw,
		exchangeTimeout: exchangeTimeout,
	}
}

// Send implements atcmd.CommandChannel. It writes the framed command and
// consumes lines until the modem's final result code, buffering any
// unsolicited lines that arrive interleaved with the response.
func (c *Channel) Send(cmd atcmd.Command) (*atcmd.Response, error) {
	frame := "AT" + cmd.Payload() + "\r\n"
	if _, err := io.WriteString(c.rw, frame); err != nil {
		return nil, fmt.Errorf("failed to write command %s: %w", cmd.Name(), err)
	}

	deadline := time.Now().Add(c.exchangeTimeout)
	echo := strings.TrimSpace(frame)

	var lines []string
	for {
		line, err := c.readLine(cmd.Name(), deadline)
		if err != nil {
			return nil, err
		}

		switch {
		case line == "" || line == echo:
			// Blank separator or command echo.
		case line == "OK" || line == "SEND OK":
			return &atcmd.Response{Lines: lines}, nil
		case line == "ERROR" || line == "FAIL":
			return nil, &atcmd.CommandFailedError{Command: cmd.Name(), Result: line}
		case atcmd.IsURC(line):
			c.pending = append(c.pending, atcmd.Classify(line))
		default:
			lines = append(lines, line)
		}
	}
}

// PollNotification implements atcmd.NotificationSource. It consumes any
// complete lines already sitting in the read buffer, then returns the next
// buffered notification. It never reads from the port, so it never blocks.
func (c *Channel) PollNotification() (atcmd.Notification, bool) {
	c.sweepBufferedLines()

	if len(c.pending) == 0 {
		return atcmd.NotificationUnknown, false
	}

	next := c.pending[0]
	c.pending = c.pending[1:]
	return next, true
}

// Close closes the underlying port if the channel owns one.
func (c *Channel) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// readLine returns the next line from the port, reading more bytes as
// needed. A read that makes no progress maps to the would-block outcome
// when no exchange budget is configured, and to ExchangeTimeoutError once
// the budget is spent.
func (c *Channel) readLine(cmdName string, deadline time.Time) (string, error) {
	for {
		if line, ok := c.takeBufferedLine(); ok {
			return line, nil
		}

		chunk := make([]byte, 256)
		n, err := c.rw.Read(chunk)
		if n > 0 {
			c.rbuf.Write(chunk[:n])
			continue
		}
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("failed to read from modem: %w", err)
		}

		// Zero-progress read: the port returned without data.
		if c.exchangeTimeout <= 0 {
			return "", atcmd.ErrWouldBlock
		}
		if !time.Now().Before(deadline) {
			return "", &ExchangeTimeoutError{Command: cmdName, Timeout: c.exchangeTimeout}
		}
	}
}

// sweepBufferedLines classifies complete lines already in the read buffer,
// queueing unsolicited notifications and dropping response stragglers.
func (c *Channel) sweepBufferedLines() {
	for {
		line, ok := c.takeBufferedLine()
		if !ok {
			return
		}
		if atcmd.IsURC(line) {
			c.pending = append(c.pending, atcmd.Classify(line))
		}
	}
}

// takeBufferedLine extracts one complete line from the read buffer.
func (c *Channel) takeBufferedLine() (string, bool) {
	data := c.rbuf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}

	raw := make([]byte, idx+1)
	_, _ = c.rbuf.Read(raw)
	return strings.TrimRight(string(raw), "\r\n"), true
}

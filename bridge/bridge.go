// Package bridge exposes a host adapter board to a remote host over a byte
// stream, such as a USB serial port or a pair of USB bulk endpoints.
//
// Every request is two bytes:
//
//	op     bit 7 = write, bits 0-6 = port offset
//	value  data for a write, ignored for a read
//
// and is answered with two bytes:
//
//	value    data read, or the value written
//	signals  bit 0 = INTRQ, bit 1 = DRQ, bit 7 = bad port
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sergev/wdfdc/adapter"
)

// Frame bits.
const (
	OpWrite    = 0x80
	OpPortMask = 0x7F

	SignalINTRQ   = 0x01
	SignalDRQ     = 0x02
	SignalBadPort = 0x80
)

// MaxPorts is the number of ports a frame can address.
const MaxPorts = OpPortMask + 1

const (
	frameSize      = 2
	responseSize   = 2
	badPortReadout = 0xFF
)

// ErrBadPort is returned by the client for a port the board does not decode.
var ErrBadPort = errors.New("port not decoded by the board")

// Server answers frames for one board.
type Server struct {
	board adapter.HostAdapter
	log   *slog.Logger
}

// NewServer returns a server for board. A nil logger selects slog.Default().
func NewServer(board adapter.HostAdapter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{board: board, log: log.With("board", board.Name())}
}

// Handle executes one request frame and returns the response.
func (s *Server) Handle(op, value byte) [responseSize]byte {
	port := int(op & OpPortMask)
	if port >= s.board.Ports() {
		s.log.Debug("bad port", "op", op, "port", port)
		return [responseSize]byte{badPortReadout, s.signals() | SignalBadPort}
	}
	if op&OpWrite != 0 {
		s.board.Out(port, value)
	} else {
		value = s.board.In(port)
	}
	return [responseSize]byte{value, s.signals()}
}

func (s *Server) signals() byte {
	intrq, drq := s.board.Signals()
	var v byte
	if intrq {
		v |= SignalINTRQ
	}
	if drq {
		v |= SignalDRQ
	}
	return v
}

// Serve answers frames from rw until the stream ends or ctx is cancelled.
// A stream that also implements io.Closer is closed on cancellation to
// unblock a pending read. End of stream is not an error.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	stop := make(chan struct{})
	defer close(stop)
	if closer, ok := rw.(io.Closer); ok {
		go func() {
			select {
			case <-ctx.Done():
				closer.Close()
			case <-stop:
			}
		}()
	}

	s.log.Info("serving", "ports", s.board.Ports())
	var frame [frameSize]byte
	for frames := 0; ; frames++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(rw, frame[:]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				s.log.Info("stream closed", "frames", frames)
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		resp := s.Handle(frame[0], frame[1])
		if _, err := rw.Write(resp[:]); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
}

// Client is the host side of the protocol.
type Client struct {
	rw    io.ReadWriter
	intrq bool
	drq   bool
}

// NewClient returns a client talking over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

func (c *Client) transact(op, value byte) (byte, error) {
	if _, err := c.rw.Write([]byte{op, value}); err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	var resp [responseSize]byte
	if _, err := io.ReadFull(c.rw, resp[:]); err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	c.intrq = resp[1]&SignalINTRQ != 0
	c.drq = resp[1]&SignalDRQ != 0
	if resp[1]&SignalBadPort != 0 {
		return resp[0], fmt.Errorf("port %d: %w", op&OpPortMask, ErrBadPort)
	}
	return resp[0], nil
}

// In reads a board port.
func (c *Client) In(port int) (byte, error) {
	return c.transact(byte(port)&OpPortMask, 0)
}

// Out writes a board port.
func (c *Client) Out(port int, value byte) error {
	_, err := c.transact(OpWrite|byte(port)&OpPortMask, value)
	return err
}

// Signals returns INTRQ and DRQ as of the last response.
func (c *Client) Signals() (intrq, drq bool) {
	return c.intrq, c.drq
}

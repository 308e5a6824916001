package escpos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/document"
	"github.com/spf13/viper"
)

const (
	TransportUSB     = "usb"
	TransportNetwork = "network"
	TransportSerial  = "serial"
	TransportFile    = "file"

	defaultNetworkPort = "9100"
)

// Session buffers ESC/POS bytes and writes them to one printer.
type Session struct {
	transport    string
	address      string
	flushTimeout time.Duration
	encoder      *Encoder
	conn         io.WriteCloser
	buf          bytes.Buffer
	// pending holds the result of a write that outlived its flush timeout.
	pending chan error
}

// option is a function that configures the Session.
type option func(*Session)

// MustNewSession creates a printer session from the printer.* configuration.
func MustNewSession(opts ...option) *Session {
	transport := viper.GetString("printer.transport")
	if transport == "" {
		transport = TransportUSB
	}

	address := viper.GetString("printer.address")
	if address == "" && transport == TransportUSB {
		address = "/dev/usb/lp0"
	}

	flushTimeoutSeconds := viper.GetInt("printer.flush_timeout_seconds")
	if flushTimeoutSeconds == 0 {
		flushTimeoutSeconds = 5
	}

	cjkPage := 0x15
	if viper.IsSet("printer.codepage.cjk") {
		cjkPage = viper.GetInt("printer.codepage.cjk")
	}
	encoder, err := NewEncoder(CodePages{
		Latin: byte(viper.GetInt("printer.codepage.latin")),
		CJK:   byte(cjkPage),
	}, viper.GetString("printer.cjk_encoding"))
	if err != nil {
		panic(err)
	}

	s := &Session{
		transport:    transport,
		address:      address,
		flushTimeout: time.Duration(flushTimeoutSeconds) * time.Second,
		encoder:      encoder,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch s.transport {
	case TransportUSB, TransportNetwork, TransportSerial, TransportFile:
	default:
		panic(fmt.Sprintf("unknown printer transport %q", s.transport))
	}
	if s.address == "" {
		panic("printer.address is not set in config")
	}

	return s
}

// WithTransport overrides printer.transport and printer.address.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTransport(transport, address string) option {
	return func(s *Session) {
		s.transport = transport
		s.address = address
	}
}

// WithFlushTimeout overrides printer.flush_timeout_seconds.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithFlushTimeout(d time.Duration) option {
	return func(s *Session) {
		s.flushTimeout = d
	}
}

// Open connects to the printer. It fails while a timed out write is still
// in progress on the device.
func (s *Session) Open(ctx context.Context) error {
	if err := s.busy(); err != nil {
		return err
	}
	if s.conn != nil {
		return nil
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s printer %s: %w", errs.ErrPrinter, s.transport, s.address, err)
	}

	s.conn = conn
	s.buf.Reset()
	slog.Debug("Printer session opened", "transport", s.transport, "address", s.address)

	return nil
}

func (s *Session) dial(ctx context.Context) (io.WriteCloser, error) {
	switch s.transport {
	case TransportNetwork:
		addr := s.address
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, defaultNetworkPort)
		}
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	case TransportFile:
		return os.OpenFile(s.address, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	default:
		return os.OpenFile(s.address, os.O_RDWR, 0)
	}
}

// Write encodes d into the session buffer.
func (s *Session) Write(d document.Directive) error {
	if s.conn == nil {
		return fmt.Errorf("%w: session is not open", errs.ErrPrinter)
	}

	return s.encoder.Encode(&s.buf, d)
}

type deadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Flush writes the buffered bytes to the device, giving up after the flush
// timeout.
func (s *Session) Flush(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("%w: session is not open", errs.ErrPrinter)
	}
	if err := s.busy(); err != nil {
		return err
	}
	if s.buf.Len() == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.flushTimeout)
	defer cancel()

	if dl, ok := s.conn.(deadliner); ok {
		_ = dl.SetWriteDeadline(time.Now().Add(s.flushTimeout))
	}

	data := bytes.Clone(s.buf.Bytes())
	s.buf.Reset()

	conn := s.conn
	done := make(chan error, 1)
	go func() {
		_, err := conn.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: failed to flush %d bytes: %w", errs.ErrPrinter, len(data), err)
		}
		return nil
	case <-ctx.Done():
		s.pending = done
		return fmt.Errorf("%w: flush timed out: %w", errs.ErrPrinter, ctx.Err())
	}
}

func (s *Session) busy() error {
	if s.pending == nil {
		return nil
	}

	select {
	case <-s.pending:
		s.pending = nil
		return nil
	default:
		return fmt.Errorf("%w: previous write is still in progress", errs.ErrPrinter)
	}
}

// Close releases the device. Unflushed bytes are dropped.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	s.buf.Reset()
	if err != nil {
		return fmt.Errorf("%w: failed to close printer: %w", errs.ErrPrinter, err)
	}

	return nil
}

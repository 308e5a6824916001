package escpos

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dongwon38/print-agent/internal/layout"
	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/Dongwon38/print-agent/internal/service/models/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder(t *testing.T) {
	tests := []struct {
		name string
		dirs []document.Directive
		want []byte
	}{
		{name: "reset", dirs: []document.Directive{document.Reset()}, want: []byte{ESC, '@'}},
		{name: "latin text", dirs: []document.Directive{document.Text("Café")}, want: []byte{'C', 'a', 'f', 0x82, NL}},
		{name: "size", dirs: []document.Directive{document.SetSize(2, 2), document.SetSize(1, 2), document.SetSize(0, 9)}, want: []byte{GS, '!', 0x11, GS, '!', 0x01, GS, '!', 0x07}},
		{name: "feed", dirs: []document.Directive{document.Feed(3)}, want: []byte{ESC, 'd', 3}},
		{name: "cut", dirs: []document.Directive{document.Cut()}, want: []byte{GS, 'V', 66, 0}},
		{name: "align", dirs: []document.Directive{document.Align(document.AlignCenter), document.Align(document.AlignRight), document.Align(document.AlignLeft)}, want: []byte{ESC, 'a', 1, ESC, 'a', 2, ESC, 'a', 0}},
		{
			name: "cjk text",
			dirs: []document.Directive{document.SetCodePage(layout.ScriptCJK), document.Text("奶茶"), document.SetCodePage(layout.ScriptLatin)},
			want: []byte{ESC, 't', 0x15, 0xC4, 0xCC, 0xB2, 0xE8, NL, ESC, 't', 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(CodePages{Latin: 0, CJK: 0x15}, "gb18030")
			require.NoError(t, err)

			var buf bytes.Buffer
			for _, d := range tt.dirs {
				require.NoError(t, enc.Encode(&buf, d))
			}
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestEncoderBig5(t *testing.T) {
	enc, err := NewEncoder(CodePages{CJK: 0x15}, "big5")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, document.SetCodePage(layout.ScriptCJK)))
	require.NoError(t, enc.Encode(&buf, document.Text("奶茶")))
	assert.Equal(t, []byte{ESC, 't', 0x15, 0xA5, 0xA4, 0xAF, 0xF9, NL}, buf.Bytes())

	_, err = NewEncoder(CodePages{}, "shift_jis")
	assert.Error(t, err)
}

func TestResetRestoresLatinTable(t *testing.T) {
	enc, err := NewEncoder(CodePages{CJK: 0x15}, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, document.SetCodePage(layout.ScriptCJK)))
	require.NoError(t, enc.Encode(&buf, document.Reset()))
	buf.Reset()
	require.NoError(t, enc.Encode(&buf, document.Text("é")))
	assert.Equal(t, []byte{0x82, NL}, buf.Bytes())
}

func TestFileSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.bin")
	s := MustNewSession(WithTransport(TransportFile, path))
	ctx := context.Background()

	require.NoError(t, s.Open(ctx))
	for _, d := range []document.Directive{document.Reset(), document.Text("Hi"), document.Cut()} {
		require.NoError(t, s.Write(d))
	}
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{ESC, '@', 'H', 'i', NL, GS, 'V', 66, 0}, got)
}

func TestWriteWithoutOpen(t *testing.T) {
	s := MustNewSession(WithTransport(TransportFile, filepath.Join(t.TempDir(), "x")))

	assert.ErrorIs(t, s.Write(document.Reset()), errs.ErrPrinter)
	assert.ErrorIs(t, s.Flush(context.Background()), errs.ErrPrinter)
	assert.NoError(t, s.Close())
}

func TestOpenFailure(t *testing.T) {
	s := MustNewSession(WithTransport(TransportSerial, filepath.Join(t.TempDir(), "missing", "ttyUSB0")))

	assert.ErrorIs(t, s.Open(context.Background()), errs.ErrPrinter)
}

func TestNetworkSession(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		b, _ := io.ReadAll(conn)
		received <- b
	}()

	s := MustNewSession(WithTransport(TransportNetwork, ln.Addr().String()))
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Write(document.Feed(2)))
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close())

	select {
	case b := <-received:
		assert.Equal(t, []byte{ESC, 'd', 2}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("printer never received data")
	}
}

type blockingConn struct {
	release chan struct{}
}

func (c *blockingConn) Write(p []byte) (int, error) {
	<-c.release
	return len(p), nil
}

func (c *blockingConn) Close() error {
	close(c.release)
	return nil
}

func TestFlushTimeout(t *testing.T) {
	s := MustNewSession(WithTransport(TransportFile, "unused"), WithFlushTimeout(20*time.Millisecond))
	s.conn = &blockingConn{release: make(chan struct{})}

	require.NoError(t, s.Write(document.Cut()))
	err := s.Flush(context.Background())
	assert.ErrorIs(t, err, errs.ErrPrinter)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, s.Close())
}

type stuckConn struct {
	release chan struct{}
}

func (c *stuckConn) Write(p []byte) (int, error) {
	<-c.release
	return len(p), nil
}

func (c *stuckConn) Close() error {
	return nil
}

func TestOpenWaitsForTimedOutWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.bin")
	s := MustNewSession(WithTransport(TransportFile, path), WithFlushTimeout(20*time.Millisecond))
	conn := &stuckConn{release: make(chan struct{})}
	s.conn = conn
	ctx := context.Background()

	require.NoError(t, s.Write(document.Cut()))
	require.ErrorIs(t, s.Flush(ctx), errs.ErrPrinter)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Open(ctx), errs.ErrPrinter)
	assert.Nil(t, s.conn)

	close(conn.release)
	require.Eventually(t, func() bool {
		return s.Open(ctx) == nil
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Close())
}

func TestEncoderStripsControlCharacters(t *testing.T) {
	enc, err := NewEncoder(CodePages{}, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, document.Text("no onions\x1bp\x00\x19\x1dVB\x00")))

	out := buf.Bytes()
	assert.Equal(t, []byte("no onions p   VB "), out[:len(out)-1])
	assert.Equal(t, NL, out[len(out)-1])
	assert.NotContains(t, string(out), string([]byte{ESC}))
	assert.NotContains(t, string(out), string([]byte{GS}))
}

func TestUnknownTransportPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewSession(WithTransport("bluetooth", "x"))
	})
}

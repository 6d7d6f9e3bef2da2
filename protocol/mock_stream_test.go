package protocol

import (
	"bytes"
	"context"
	"io"
	"net"

	"github.com/ZXY595/async-niri-socket/transport"
)

// mockStream is a scripted transport.Stream. ReadLine serves lines from
// incoming; once incoming holds no complete line it reports EOF when eof is
// set and otherwise blocks until ctx is done, like a peer that never sends
// the terminator.
type mockStream struct {
	incoming []byte
	eof      bool
	writeErr error

	written   bytes.Buffer
	ops       []string
	writes    int
	reads     int
	shutdowns int
	closes    int
}

var _ transport.Stream = (*mockStream)(nil)

func newMockStream(lines ...string) *mockStream {
	m := &mockStream{eof: true}
	for _, l := range lines {
		m.incoming = append(m.incoming, l...)
	}
	return m
}

func (m *mockStream) ReadLine(ctx context.Context, buf *bytes.Buffer) error {
	m.ops = append(m.ops, "read")
	m.reads++
	if m.closes > 0 {
		return net.ErrClosed
	}

	if i := bytes.IndexByte(m.incoming, '\n'); i >= 0 {
		buf.Write(m.incoming[:i+1])
		m.incoming = m.incoming[i+1:]
		return nil
	}
	if m.eof {
		if len(m.incoming) > 0 {
			m.incoming = nil
			return io.ErrUnexpectedEOF
		}
		return io.EOF
	}

	<-ctx.Done()
	return ctx.Err()
}

func (m *mockStream) WriteAll(ctx context.Context, data []byte) error {
	m.ops = append(m.ops, "write")
	m.writes++
	if m.closes > 0 {
		return net.ErrClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written.Write(data)
	return nil
}

func (m *mockStream) ShutdownWrite() {
	m.shutdowns++
}

func (m *mockStream) Close() error {
	m.closes++
	return nil
}

// dialMock returns a dialer handing out m.
func dialMock(m *mockStream) transport.Dialer {
	return func(ctx context.Context, path string) (transport.Stream, error) {
		return m, nil
	}
}

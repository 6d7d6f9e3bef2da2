package transport

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"sync"
	"time"
)

// UnixStream is a Stream on the Go netpoller.
type UnixStream struct {
	conn   *net.UnixConn
	reader *bufio.Reader
	close  func() error
}

var _ Stream = (*UnixStream)(nil)

// DialUnix connects to the Unix socket at path using the net package.
func DialUnix(ctx context.Context, path string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return newUnixStream(conn.(*net.UnixConn)), nil
}

func newUnixStream(conn *net.UnixConn) *UnixStream {
	return &UnixStream{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, readBufferSize),
		close:  sync.OnceValue(conn.Close),
	}
}

// ReadLine implements Stream.
func (s *UnixStream) ReadLine(ctx context.Context, buf *bytes.Buffer) error {
	defer s.abortOnCancel(ctx)()
	return ctxErr(ctx, readLine(s.reader, buf))
}

// WriteAll implements Stream.
func (s *UnixStream) WriteAll(ctx context.Context, data []byte) error {
	defer s.abortOnCancel(ctx)()
	_, err := s.conn.Write(data)
	return ctxErr(ctx, err)
}

// ShutdownWrite implements Stream.
func (s *UnixStream) ShutdownWrite() {
	_ = s.conn.CloseWrite()
}

// Close implements Stream.
func (s *UnixStream) Close() error {
	return s.close()
}

// abortOnCancel unblocks pending I/O by expiring the connection deadline
// once ctx is done.
func (s *UnixStream) abortOnCancel(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(time.Unix(1, 0))
	})
}

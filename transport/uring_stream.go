package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"
)

// URingStream is a Stream whose reads and writes are submitted to an
// io_uring instance through iceber/iouring-go.
type URingStream struct {
	iour   *iouring.IOURing
	fd     int
	reader *bufio.Reader
	close  func() error
}

var _ Stream = (*URingStream)(nil)

// DialURing connects to the Unix socket at path and drives it with io_uring.
func DialURing(ctx context.Context, path string) (Stream, error) {
	iour, err := iouring.New(ringEntries)
	if err != nil {
		return nil, err
	}

	fd, err := dialUnixFD(ctx, path)
	if err != nil {
		iour.Close()
		return nil, err
	}

	s := &URingStream{
		iour: iour,
		fd:   fd,
	}
	s.reader = bufio.NewReaderSize(readerFunc(s.recv), readBufferSize)
	s.close = sync.OnceValue(s.release)
	return s, nil
}

// ReadLine implements Stream.
func (s *URingStream) ReadLine(ctx context.Context, buf *bytes.Buffer) error {
	defer s.abortOnCancel(ctx)()
	return ctxErr(ctx, readLine(s.reader, buf))
}

// WriteAll implements Stream.
func (s *URingStream) WriteAll(ctx context.Context, data []byte) error {
	defer s.abortOnCancel(ctx)()

	totalWritten := 0
	for totalWritten < len(data) {
		n, err := s.submit(iouring.Write(s.fd, data[totalWritten:]))
		if err != nil {
			return ctxErr(ctx, err)
		}
		if n <= 0 {
			return ctxErr(ctx, io.ErrClosedPipe)
		}
		totalWritten += n
	}
	return nil
}

// ShutdownWrite implements Stream.
func (s *URingStream) ShutdownWrite() {
	shutdownFD(s.fd, unix.SHUT_WR)
}

// Close implements Stream.
func (s *URingStream) Close() error {
	return s.close()
}

func (s *URingStream) release() error {
	err := unix.Close(s.fd)
	s.iour.Close()
	return err
}

// recv reads into p with a single io_uring read. Zero bytes means the peer
// closed its write side. Read and Write are used rather than Recv and Send
// because only they install the result resolver ReturnInt relies on.
func (s *URingStream) recv(p []byte) (int, error) {
	n, err := s.submit(iouring.Read(s.fd, p))
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *URingStream) submit(prep iouring.PrepRequest) (int, error) {
	ch := make(chan iouring.Result, 1)
	if _, err := s.iour.SubmitRequest(prep, ch); err != nil {
		return 0, err
	}
	result := <-ch
	return result.ReturnInt()
}

// abortOnCancel shuts the socket down once ctx is done, which completes any
// pending recv or send.
func (s *URingStream) abortOnCancel(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		shutdownFD(s.fd, unix.SHUT_RDWR)
	})
}

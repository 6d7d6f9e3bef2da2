package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/godzie44/go-uring/uring"
	"golang.org/x/sys/unix"
)

// URingStreamV2 is a Stream driven by godzie44/go-uring. Operations are
// queued, submitted and waited for one at a time on a private ring.
type URingStreamV2 struct {
	ring   *uring.Ring
	fd     int
	file   *os.File
	reader *bufio.Reader
	close  func() error
}

var _ Stream = (*URingStreamV2)(nil)

// DialURingV2 connects to the Unix socket at path and drives it with
// go-uring.
func DialURingV2(ctx context.Context, path string) (Stream, error) {
	ring, err := uring.New(ringEntries)
	if err != nil {
		return nil, err
	}

	fd, err := dialUnixFD(ctx, path)
	if err != nil {
		ring.Close()
		return nil, err
	}

	s := &URingStreamV2{
		ring: ring,
		fd:   fd,
		file: os.NewFile(uintptr(fd), "niri-socket"),
	}
	s.reader = bufio.NewReaderSize(readerFunc(s.recv), readBufferSize)
	s.close = sync.OnceValue(s.release)
	return s, nil
}

// ReadLine implements Stream.
func (s *URingStreamV2) ReadLine(ctx context.Context, buf *bytes.Buffer) error {
	defer s.abortOnCancel(ctx)()
	return ctxErr(ctx, readLine(s.reader, buf))
}

// WriteAll implements Stream.
func (s *URingStreamV2) WriteAll(ctx context.Context, data []byte) error {
	defer s.abortOnCancel(ctx)()

	totalWritten := 0
	for totalWritten < len(data) {
		n, err := s.submit(func() error {
			return s.ring.QueueSQE(uring.Write(s.file.Fd(), data[totalWritten:], 0), 0, 0)
		})
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
func (s *URingStreamV2) ShutdownWrite() {
	shutdownFD(s.fd, unix.SHUT_WR)
}

// Close implements Stream.
func (s *URingStreamV2) Close() error {
	return s.close()
}

func (s *URingStreamV2) release() error {
	err := s.file.Close()
	s.ring.Close()
	return err
}

func (s *URingStreamV2) recv(p []byte) (int, error) {
	n, err := s.submit(func() error {
		return s.ring.QueueSQE(uring.Read(s.file.Fd(), p, 0), 0, 0)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// submit queues one operation, submits it and waits for its completion.
func (s *URingStreamV2) submit(queue func() error) (int, error) {
	if err := queue(); err != nil {
		return 0, err
	}
	if _, err := s.ring.Submit(); err != nil {
		return 0, err
	}

	for {
		cqe, err := s.ring.WaitCQEvents(1)
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}

		res, err := int(cqe.Res), cqe.Error()
		s.ring.SeenCQE(cqe)
		if err != nil {
			return 0, err
		}
		return res, nil
	}
}

func (s *URingStreamV2) abortOnCancel(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		shutdownFD(s.fd, unix.SHUT_RDWR)
	})
}

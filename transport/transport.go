// Package transport provides the byte stream niri IPC runs over: one Unix
// domain socket connection read a line at a time.
//
// The Stream interface is implemented once per I/O runtime (the Go netpoller
// and two io_uring backends). All implementations behave the same; protocol
// logic lives elsewhere and is written against the interface only.
package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// Stream is one established connection to the niri socket.
// A Stream has a single owner and must not be used from two goroutines at once.
type Stream interface {
	// ReadLine appends the next newline-terminated line to buf, terminator
	// included. It blocks until a full line is available. If the peer closes
	// the connection first it returns io.EOF (no bytes pending) or
	// io.ErrUnexpectedEOF (partial line) and leaves buf untouched.
	ReadLine(ctx context.Context, buf *bytes.Buffer) error

	// WriteAll writes all of data or returns an error.
	WriteAll(ctx context.Context, data []byte) error

	// ShutdownWrite half-closes the write direction. Failures are ignored.
	ShutdownWrite()

	// Close releases the connection. Safe to call multiple times.
	Close() error
}

// Dialer opens a Stream to the Unix socket at path.
type Dialer func(ctx context.Context, path string) (Stream, error)

const (
	// readBufferSize is the size of the per-connection line buffer. niri
	// replies for large layouts can be tens of KB; bufio grows past this.
	readBufferSize = 64 * 1024

	// ringEntries is the submission queue depth of the io_uring backends.
	// Each stream has at most one operation in flight.
	ringEntries = 8
)

// readerFunc adapts a raw receive function to io.Reader.
type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) {
	return f(p)
}

// readLine reads one complete line from r into buf.
func readLine(r *bufio.Reader, buf *bytes.Buffer) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return io.ErrUnexpectedEOF
			}
			return io.EOF
		}
		return err
	}
	buf.Write(line)
	return nil
}

// ctxErr prefers the context error when an operation failed because the
// context was cancelled underneath it.
func ctxErr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

package transport

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
)

// dialUnixFD opens a blocking Unix stream socket connected to path. The
// io_uring backends submit their reads and writes against the raw fd.
func dialUnixFD(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}

	// connect(2) on a Unix socket completes or fails immediately, so the
	// blocking call does not hold the caller beyond the handshake.
	if err := unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return -1, &os.PathError{Op: "connect", Path: path, Err: err}
	}
	return fd, nil
}

// shutdownFD half- or fully closes fd, ignoring errors.
func shutdownFD(fd int, how int) {
	_ = unix.Shutdown(fd, how)
}

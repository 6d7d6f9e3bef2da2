// Package protocol implements the niri IPC exchange on top of a
// transport.Stream: one request line answered by one reply line, or one
// EventStream request followed by an unbounded feed of event lines.
//
// A Socket and the EventStream derived from it have a single owner. Nothing
// in this package locks; concurrent calls on one instance are not supported.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/errors"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/transport"
)

var (
	// ErrClosed is the cause of errors returned by a closed Socket.
	ErrClosed = stderrors.New("socket closed")
	// ErrConsumed is the cause of errors returned by a Socket that was
	// turned into an EventStream.
	ErrConsumed = stderrors.New("socket consumed by event stream")
)

// Socket is a connection to niri used for request/reply exchanges.
type Socket struct {
	stream  transport.Stream
	gone    error
	buf     bytes.Buffer
	logger  *zap.Logger
	metrics *Metrics
}

// New wraps an already connected stream.
func New(stream transport.Stream, opts ...Option) *Socket {
	return newSocket(stream, buildOptions(opts))
}

func newSocket(stream transport.Stream, o options) *Socket {
	return &Socket{
		stream:  stream,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Connect connects to the socket named by the NIRI_SOCKET environment
// variable.
func Connect(ctx context.Context, opts ...Option) (*Socket, error) {
	path, ok := os.LookupEnv(ipc.SocketPathEnv)
	if !ok {
		return nil, errors.NewIOError(
			errors.OpConnect,
			fmt.Sprintf("%s is not set, are you running this within niri?", ipc.SocketPathEnv),
			fs.ErrNotExist,
		)
	}
	return ConnectTo(ctx, path, opts...)
}

// ConnectTo connects to the niri socket at path.
func ConnectTo(ctx context.Context, path string, opts ...Option) (*Socket, error) {
	o := buildOptions(opts)

	stream, err := o.dialer(ctx, path)
	if err != nil {
		return nil, errors.NewIOError(
			errors.OpConnect,
			fmt.Sprintf("failed to connect to %s", path),
			err,
		)
	}

	o.logger.Debug("connected to niri socket", zap.String("path", path))
	return newSocket(stream, o), nil
}

// Logger returns the logger the Socket was configured with.
func (s *Socket) Logger() *zap.Logger {
	return s.logger
}

// Send writes req and waits for niri's reply. A reply carrying an error
// message is returned as a remote *errors.Error; any local failure,
// including an undecodable reply, as an I/O *errors.Error.
func (s *Socket) Send(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	resp, err := s.send(ctx, req)
	s.metrics.observeRequest(req.Kind(), outcome(err))
	return resp, err
}

func (s *Socket) send(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	if s.stream == nil {
		return ipc.Response{}, errors.NewIOError(errors.OpWrite, "socket is not usable", s.gone)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return ipc.Response{}, errors.NewIOError(errors.OpEncode, "failed to encode request", err)
	}
	data = append(data, '\n')

	s.logger.Debug("sending request", zap.String("request", req.Kind()))
	if err := s.stream.WriteAll(ctx, data); err != nil {
		return ipc.Response{}, errors.NewIOError(errors.OpWrite, "failed to write request", err)
	}

	s.buf.Reset()
	if err := s.stream.ReadLine(ctx, &s.buf); err != nil {
		return ipc.Response{}, errors.NewIOError(errors.OpRead, "failed to read reply", err)
	}

	var reply ipc.Reply
	if err := json.Unmarshal(s.buf.Bytes(), &reply); err != nil {
		return ipc.Response{}, errors.NewIOError(errors.OpDecode, "failed to decode reply", err)
	}
	if reply.Err != nil {
		s.logger.Debug("niri rejected request",
			zap.String("request", req.Kind()),
			zap.String("message", *reply.Err),
		)
		return ipc.Response{}, errors.NewRemoteError(*reply.Err)
	}

	s.logger.Debug("received reply", zap.String("response", reply.Ok.Kind))
	return *reply.Ok, nil
}

// IntoEventStream sends the EventStream request and hands the connection
// over to the returned EventStream, half-closing its write side. The Socket
// is consumed whether or not this succeeds; on failure its connection is
// closed.
func (s *Socket) IntoEventStream(ctx context.Context) (*EventStream, error) {
	if _, err := s.Send(ctx, ipc.RequestEventStream); err != nil {
		s.release(ErrConsumed)
		return nil, err
	}

	stream := s.stream
	s.stream, s.gone = nil, ErrConsumed
	stream.ShutdownWrite()

	s.logger.Debug("event stream started")
	return newEventStream(stream, s.logger, s.metrics), nil
}

// Close closes the connection. Closing a consumed or already closed Socket
// is a no-op.
func (s *Socket) Close() error {
	return s.release(ErrClosed)
}

func (s *Socket) release(reason error) error {
	if s.stream == nil {
		return nil
	}
	stream := s.stream
	s.stream, s.gone = nil, reason
	return stream.Close()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.IsRemote(err):
		return outcomeRemote
	default:
		return outcomeIO
	}
}

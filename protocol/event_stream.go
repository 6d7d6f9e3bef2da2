package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"iter"
	"sync"

	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/errors"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/transport"
)

// ErrStreamEnded is the cause of the I/O error returned by Next once the
// stream has delivered its terminal error.
var ErrStreamEnded = stderrors.New("event stream ended")

// EventStream reads events from a connection dedicated to the niri event
// feed. It never writes to the connection.
//
// The stream has no clean end: it yields events until reading or decoding
// fails, delivers that failure once, and then closes the connection.
type EventStream struct {
	stream  transport.Stream
	buf     bytes.Buffer
	done    bool
	close   func() error
	logger  *zap.Logger
	metrics *Metrics
}

func newEventStream(stream transport.Stream, logger *zap.Logger, metrics *Metrics) *EventStream {
	return &EventStream{
		stream:  stream,
		close:   sync.OnceValue(stream.Close),
		logger:  logger,
		metrics: metrics,
	}
}

// Next blocks until the next event arrives.
func (e *EventStream) Next(ctx context.Context) (ipc.Event, error) {
	if e.done {
		return ipc.Event{}, errors.NewIOError(errors.OpRead, "event stream is closed", ErrStreamEnded)
	}

	e.buf.Reset()
	if err := e.stream.ReadLine(ctx, &e.buf); err != nil {
		return ipc.Event{}, e.terminate(errors.NewIOError(errors.OpRead, "failed to read event", err))
	}

	var ev ipc.Event
	if err := json.Unmarshal(e.buf.Bytes(), &ev); err != nil {
		return ipc.Event{}, e.terminate(errors.NewIOError(errors.OpDecode, "failed to decode event", err))
	}

	e.metrics.observeEvent(ev.Kind)
	return ev, nil
}

// All returns a single-use iterator over the stream. The last pair yielded
// carries the error that ended the stream. Stopping the iteration early
// closes the stream.
func (e *EventStream) All(ctx context.Context) iter.Seq2[ipc.Event, error] {
	return func(yield func(ipc.Event, error) bool) {
		for !e.done {
			ev, err := e.Next(ctx)
			if !yield(ev, err) {
				_ = e.Close()
				return
			}
		}
	}
}

// Close releases the connection. Safe to call multiple times.
func (e *EventStream) Close() error {
	e.done = true
	return e.close()
}

func (e *EventStream) terminate(err *errors.Error) error {
	e.logger.Debug("event stream terminated", zap.Error(err))
	e.metrics.observeStreamEnd()
	_ = e.Close()
	return err
}

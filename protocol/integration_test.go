package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZXY595/async-niri-socket/errors"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/transport"
)

var fakeNiriCounter uint64

// fakeNiri serves one connection the way niri does: answer request lines
// until the client half-closes, or switch to pushing events after an
// EventStream request.
type fakeNiri struct {
	path     string
	listener net.Listener
	done     chan struct{}
	events   []string
	sawEOF   atomic.Bool
	requests []string
}

func startFakeNiri(t *testing.T, events ...string) *fakeNiri {
	t.Helper()

	count := atomic.AddUint64(&fakeNiriCounter, 1)
	path := fmt.Sprintf("/tmp/niri_protocol_test_%d_%d.sock", os.Getpid(), count)
	os.Remove(path)

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	f := &fakeNiri{
		path:     path,
		listener: listener,
		done:     make(chan struct{}),
		events:   events,
	}
	go f.serve()

	t.Cleanup(func() {
		listener.Close()
		<-f.done
		os.Remove(path)
	})
	return f
}

func (f *fakeNiri) serve() {
	defer close(f.done)

	conn, err := f.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			return
		}

		req, err := ipc.ParseRequest(line)
		if err != nil {
			f.reply(conn, ipc.ErrReply(err.Error()))
			continue
		}
		f.requests = append(f.requests, req.Kind())

		switch req.Kind() {
		case "Version":
			f.reply(conn, ipc.OkReply(ipc.Response{Kind: "Version", Payload: json.RawMessage(`"25.05"`)}))
		case "Windows":
			f.reply(conn, ipc.OkReply(ipc.Response{Kind: "Windows", Payload: json.RawMessage(`[]`)}))
		case "ReturnError":
			f.reply(conn, ipc.ErrReply("example compositor error"))
		case "EventStream":
			f.reply(conn, ipc.OkReply(ipc.Response{Kind: ipc.ResponseHandled}))
			// The client must half-close before any event is pushed.
			if _, err := r.ReadByte(); err == io.EOF {
				f.sawEOF.Store(true)
			}
			for _, ev := range f.events {
				conn.Write([]byte(ev + "\n"))
			}
			return
		default:
			f.reply(conn, ipc.OkReply(ipc.Response{Kind: ipc.ResponseHandled}))
		}
	}
}

func (f *fakeNiri) reply(conn net.Conn, reply ipc.Reply) {
	data, _ := json.Marshal(reply)
	conn.Write(append(data, '\n'))
}

func connectOrSkip(t *testing.T, rt transport.Runtime, path string) *Socket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := ConnectTo(ctx, path, WithRuntime(rt))
	if err != nil && rt != transport.RuntimeNet {
		t.Skipf("%s runtime unavailable: %v", rt, err)
	}
	require.NoError(t, err)
	return s
}

func TestIntegration_RequestsOverEachRuntime(t *testing.T) {
	for _, rt := range []transport.Runtime{transport.RuntimeNet, transport.RuntimeIOURing, transport.RuntimeURingV2} {
		t.Run(rt.String(), func(t *testing.T) {
			f := startFakeNiri(t)
			s := connectOrSkip(t, rt, f.path)
			defer s.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			resp, err := s.Send(ctx, ipc.RequestVersion)
			require.NoError(t, err)
			var version string
			require.NoError(t, resp.Decode(&version))
			assert.Equal(t, "25.05", version)

			resp, err = s.Send(ctx, ipc.RequestWindows)
			require.NoError(t, err)
			assert.Equal(t, "Windows", resp.Kind)

			_, err = s.Send(ctx, ipc.RequestReturnError)
			msg, ok := errors.RemoteMessage(err)
			require.True(t, ok)
			assert.Equal(t, "example compositor error", msg)

			resp, err = s.Send(ctx, ipc.ActionRequest("FocusWindow", map[string]int{"id": 1}))
			require.NoError(t, err)
			assert.Equal(t, ipc.ResponseHandled, resp.Kind)
		})
	}
}

func TestIntegration_EventStreamOverEachRuntime(t *testing.T) {
	for _, rt := range []transport.Runtime{transport.RuntimeNet, transport.RuntimeIOURing, transport.RuntimeURingV2} {
		t.Run(rt.String(), func(t *testing.T) {
			f := startFakeNiri(t,
				`{"WorkspacesChanged":{"workspaces":[]}}`,
				`{"WindowFocusChanged":{"id":null}}`,
				`{"KeyboardLayoutSwitched":{"idx":1}}`,
			)
			s := connectOrSkip(t, rt, f.path)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			es, err := s.IntoEventStream(ctx)
			require.NoError(t, err)
			defer es.Close()

			var kinds []string
			var last error
			for ev, err := range es.All(ctx) {
				if err != nil {
					last = err
					break
				}
				kinds = append(kinds, ev.Kind)
			}

			assert.Equal(t, []string{
				ipc.EventWorkspacesChanged,
				ipc.EventWindowFocusChanged,
				ipc.EventKeyboardLayoutSwitched,
			}, kinds)
			assert.True(t, errors.IsIO(last))
			assert.ErrorIs(t, last, io.EOF)

			<-f.done
			assert.True(t, f.sawEOF.Load(), "server must observe the half-close")
			assert.Equal(t, []string{"EventStream"}, f.requests)
		})
	}
}

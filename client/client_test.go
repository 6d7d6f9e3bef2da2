package client

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ZXY595/async-niri-socket/errors"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/protocol"
	"github.com/ZXY595/async-niri-socket/transport"
)

// scriptedStream replays canned reply lines and records what was written.
// With hold set it blocks for more input until ctx is done instead of
// reporting EOF.
type scriptedStream struct {
	lines   []string
	hold    bool
	written bytes.Buffer
	closed  chan struct{}
}

func newScriptedStream(lines ...string) *scriptedStream {
	return &scriptedStream{lines: lines, closed: make(chan struct{})}
}

func (s *scriptedStream) ReadLine(ctx context.Context, buf *bytes.Buffer) error {
	if len(s.lines) == 0 {
		if !s.hold {
			return io.EOF
		}
		<-ctx.Done()
		return ctx.Err()
	}
	buf.WriteString(s.lines[0] + "\n")
	s.lines = s.lines[1:]
	return nil
}

func (s *scriptedStream) WriteAll(ctx context.Context, data []byte) error {
	s.written.Write(data)
	return nil
}

func (s *scriptedStream) ShutdownWrite() {}

func (s *scriptedStream) Close() error {
	close(s.closed)
	return nil
}

func newTestClient(lines ...string) (*Client, *scriptedStream) {
	s := newScriptedStream(lines...)
	return New(protocol.New(s), nil), s
}

func TestClient_Version(t *testing.T) {
	c, s := newTestClient(`{"Ok":{"Version":"25.05.1"}}`)

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "25.05.1", v)
	assert.Equal(t, "\"Version\"\n", s.written.String())
}

func TestClient_Windows(t *testing.T) {
	c, _ := newTestClient(`{"Ok":{"Windows":[{"id":12,"title":"term","app_id":"foot","pid":77,"workspace_id":2,"is_focused":true,"is_floating":false,"is_urgent":false}]}}`)

	windows, err := c.Windows(context.Background())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, uint64(12), windows[0].ID)
	require.NotNil(t, windows[0].AppID)
	assert.Equal(t, "foot", *windows[0].AppID)
	assert.True(t, windows[0].IsFocused)
}

func TestClient_Workspaces(t *testing.T) {
	c, _ := newTestClient(`{"Ok":{"Workspaces":[{"id":1,"idx":1,"name":null,"output":"eDP-1","is_urgent":false,"is_active":true,"is_focused":true,"active_window_id":null}]}}`)

	workspaces, err := c.Workspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, workspaces, 1)
	assert.Nil(t, workspaces[0].Name)
	assert.True(t, workspaces[0].IsActive)
}

func TestClient_FocusedWindowNone(t *testing.T) {
	c, _ := newTestClient(`{"Ok":{"FocusedWindow":null}}`)

	w, err := c.FocusedWindow(context.Background())
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestClient_UnexpectedResponseKind(t *testing.T) {
	c, _ := newTestClient(`{"Ok":"Handled"}`)

	_, err := c.Windows(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))
	assert.Contains(t, err.Error(), `unexpected response "Handled"`)
}

func TestClient_Action(t *testing.T) {
	c, s := newTestClient(`{"Ok":"Handled"}`, `{"Err":"workspace not found"}`)
	ctx := context.Background()

	require.NoError(t, c.Action(ctx, "FocusWorkspace", map[string]any{"reference": map[string]int{"Index": 2}}))
	assert.Contains(t, s.written.String(), `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`)

	err := c.Action(ctx, "FocusWorkspace", map[string]any{"reference": map[string]string{"Name": "nope"}})
	msg, ok := errors.RemoteMessage(err)
	require.True(t, ok)
	assert.Equal(t, "workspace not found", msg)
}

func TestClient_SubscribeDeliversUntilError(t *testing.T) {
	c, s := newTestClient(
		`{"Ok":"Handled"}`,
		`{"WindowClosed":{"id":1}}`,
		`{"WindowClosed":{"id":2}}`,
	)

	ch, err := c.Subscribe(context.Background())
	require.NoError(t, err)

	var got []Message
	for msg := range ch {
		got = append(got, msg)
	}

	require.Len(t, got, 3)
	assert.Equal(t, ipc.EventWindowClosed, got[0].Event.Kind)
	assert.NoError(t, got[1].Err)
	assert.True(t, errors.IsIO(got[2].Err))

	select {
	case <-s.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not closed")
	}
}

func TestClient_SubscribeStopsOnCancel(t *testing.T) {
	c, s := newTestClient(`{"Ok":"Handled"}`, `{"WindowClosed":{"id":1}}`)
	s.hold = true

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.Subscribe(ctx)
	require.NoError(t, err)

	first := <-ch
	require.NoError(t, first.Err)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				select {
				case <-s.closed:
				case <-deadline:
					t.Fatal("stream was not closed after cancel")
				}
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed after cancel")
		}
	}
}

func TestClient_SubscribeRejected(t *testing.T) {
	c, _ := newTestClient(`{"Err":"denied"}`)

	ch, err := c.Subscribe(context.Background())
	assert.Nil(t, ch)
	assert.True(t, errors.IsRemote(err))
}

func TestClient_EventStreamHandshakeIsBounded(t *testing.T) {
	c, s := newTestClient()
	s.hold = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	es, err := c.EventStream(ctx)
	assert.Nil(t, es)
	assert.True(t, errors.IsIO(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_EventStreamOutlivesHandshakeContext(t *testing.T) {
	c, _ := newTestClient(`{"Ok":"Handled"}`, `{"WindowClosed":{"id":5}}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	es, err := c.EventStream(ctx)
	cancel()
	require.NoError(t, err)
	defer es.Close()

	ev, err := es.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ipc.EventWindowClosed, ev.Kind)
}

func TestConnectTo_UsesSocketLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newScriptedStream(`{"Ok":"Handled"}`)
	dialer := func(ctx context.Context, path string) (transport.Stream, error) {
		return s, nil
	}

	c, err := ConnectTo(context.Background(), "/run/niri.sock",
		protocol.WithDialer(dialer), protocol.WithLogger(zap.New(core)))
	require.NoError(t, err)

	ch, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	for range ch {
	}

	assert.Equal(t, 1, logs.FilterMessage("event subscription ended").Len())
}

// Package client offers typed helpers on top of protocol.Socket.
package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/errors"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/protocol"
)

// subscribeBuffer is the number of events Subscribe queues ahead of a slow
// consumer before it stops reading from the socket.
const subscribeBuffer = 64

// Client provides a high-level niri IPC API
type Client struct {
	socket *protocol.Socket
	logger *zap.Logger
}

// New creates a client using socket. A nil logger disables logging.
func New(socket *protocol.Socket, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		socket: socket,
		logger: logger,
	}
}

// Connect connects to the socket named by NIRI_SOCKET. The client logs
// through the logger given with protocol.WithLogger.
func Connect(ctx context.Context, opts ...protocol.Option) (*Client, error) {
	socket, err := protocol.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return New(socket, socket.Logger()), nil
}

// ConnectTo connects to the niri socket at path.
func ConnectTo(ctx context.Context, path string, opts ...protocol.Option) (*Client, error) {
	socket, err := protocol.ConnectTo(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	return New(socket, socket.Logger()), nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.socket.Close()
}

// Send sends a raw request.
func (c *Client) Send(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	return c.socket.Send(ctx, req)
}

// Version returns the version string of the running niri.
func (c *Client) Version(ctx context.Context) (string, error) {
	return query[string](ctx, c, ipc.RequestVersion, "Version")
}

// Windows lists all open windows.
func (c *Client) Windows(ctx context.Context) ([]ipc.Window, error) {
	return query[[]ipc.Window](ctx, c, ipc.RequestWindows, "Windows")
}

// Workspaces lists all workspaces.
func (c *Client) Workspaces(ctx context.Context) ([]ipc.Workspace, error) {
	return query[[]ipc.Workspace](ctx, c, ipc.RequestWorkspaces, "Workspaces")
}

// FocusedWindow returns the focused window, or nil when no window has focus.
func (c *Client) FocusedWindow(ctx context.Context) (*ipc.Window, error) {
	return query[*ipc.Window](ctx, c, ipc.RequestFocusedWindow, "FocusedWindow")
}

// Action performs the named niri action. args holds the action fields and
// may be nil.
func (c *Client) Action(ctx context.Context, name string, args any) error {
	resp, err := c.socket.Send(ctx, ipc.ActionRequest(name, args))
	if err != nil {
		return err
	}
	if resp.Kind != ipc.ResponseHandled {
		return unexpected(resp.Kind, ipc.ResponseHandled)
	}
	return nil
}

func query[T any](ctx context.Context, c *Client, req ipc.Request, kind string) (T, error) {
	var out T

	resp, err := c.socket.Send(ctx, req)
	if err != nil {
		return out, err
	}
	if resp.Kind != kind {
		return out, unexpected(resp.Kind, kind)
	}
	if err := resp.Decode(&out); err != nil {
		return out, errors.NewIOError(errors.OpDecode, fmt.Sprintf("failed to decode %s response", kind), err)
	}
	return out, nil
}

func unexpected(got, want string) error {
	return errors.NewIOError(errors.OpDecode, fmt.Sprintf("unexpected response %q, want %q", got, want), nil)
}

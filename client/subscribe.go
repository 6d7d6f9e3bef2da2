package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/protocol"
)

// Message is one element delivered by Subscribe. Exactly one of Event and
// Err is meaningful; a message with Err set is the last one on the channel.
type Message struct {
	Event ipc.Event
	Err   error
}

// EventStream turns the client's connection into an event feed. ctx bounds
// only the EventStream request; pulls take their own context. The client
// can no longer send requests afterwards.
func (c *Client) EventStream(ctx context.Context) (*protocol.EventStream, error) {
	return c.socket.IntoEventStream(ctx)
}

// Subscribe turns the client's connection into an event feed and delivers
// it on the returned channel from a background goroutine. The client can no
// longer send requests afterwards.
//
// The channel is closed after the terminal error, or as soon as ctx is
// cancelled; cancelling ctx also closes the connection.
func (c *Client) Subscribe(ctx context.Context) (<-chan Message, error) {
	es, err := c.EventStream(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan Message, subscribeBuffer)
	go func() {
		defer close(ch)
		defer es.Close()

		for ev, err := range es.All(ctx) {
			if err != nil {
				c.logger.Debug("event subscription ended", zap.Error(err))
			}
			select {
			case ch <- Message{Event: ev, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

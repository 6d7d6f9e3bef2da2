package protocol

import (
	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/transport"
)

// Option configures a Socket.
type Option func(*options)

type options struct {
	dialer  transport.Dialer
	logger  *zap.Logger
	metrics *Metrics
}

func defaultOptions() options {
	return options{
		dialer: transport.DialUnix,
		logger: zap.NewNop(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDialer selects the I/O runtime used by Connect and ConnectTo.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithRuntime is a shorthand for WithDialer(rt.Dialer()).
func WithRuntime(rt transport.Runtime) Option {
	return WithDialer(rt.Dialer())
}

// WithLogger sets the logger for connection and request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records request and event counts in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

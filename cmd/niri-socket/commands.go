package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/client"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/protocol"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the niri version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			v, err := c.Version(ctx)
			if err != nil {
				return err
			}
			return printer.Print(v)
		})
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List open windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			windows, err := c.Windows(ctx)
			if err != nil {
				return err
			}
			return printer.Print(windows)
		})
	},
}

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			workspaces, err := c.Workspaces(ctx)
			if err != nil {
				return err
			}
			return printer.Print(workspaces)
		})
	},
}

var focusedWindowCmd = &cobra.Command{
	Use:   "focused-window",
	Short: "Print the focused window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			w, err := c.FocusedWindow(ctx)
			if err != nil {
				return err
			}
			return printer.Print(w)
		})
	},
}

var requestCmd = &cobra.Command{
	Use:   "request <json>",
	Short: "Send a raw request and print the response",
	Example: `  niri-socket request '"Outputs"'
  niri-socket request '{"Action":{"FocusWindow":{"id":3}}}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := ipc.ParseRequest([]byte(args[0]))
		if err != nil {
			return fmt.Errorf("parse request: %w", err)
		}

		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			resp, err := c.Send(ctx, req)
			if err != nil {
				return err
			}
			return printer.Print(resp)
		})
	},
}

var actionCmd = &cobra.Command{
	Use:   "action <name> [json-args]",
	Short: "Perform a niri action",
	Example: `  niri-socket action FocusColumnLeft
  niri-socket action FocusWorkspace '{"reference":{"Index":2}}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var actionArgs any
		if len(args) == 2 {
			var raw json.RawMessage
			if err := json.Unmarshal([]byte(args[1]), &raw); err != nil {
				return fmt.Errorf("parse action arguments: %w", err)
			}
			actionArgs = raw
		}

		return withClient(cmd, func(ctx context.Context, c *client.Client) error {
			if err := c.Action(ctx, args[0], actionArgs); err != nil {
				return err
			}
			return printer.Print(ipc.ResponseHandled)
		})
	},
}

var metricsAddr string

var eventStreamCmd = &cobra.Command{
	Use:   "event-stream",
	Short: "Print niri events as they happen",
	Long: `event-stream switches the connection into event mode and prints every event
until niri closes the connection or the command is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runEventStream,
}

func init() {
	eventStreamCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

func runEventStream(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var opts []protocol.Option
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics, err := protocol.NewMetrics(reg)
		if err != nil {
			return err
		}
		opts = append(opts, protocol.WithMetrics(metrics))

		srv := serveMetrics(metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	handshakeCtx, cancel := requestContext(ctx)
	defer cancel()

	c, err := connect(handshakeCtx, opts...)
	if err != nil {
		return err
	}
	defer closeClient(c)

	es, err := c.EventStream(handshakeCtx)
	if err != nil {
		return err
	}
	defer es.Close()
	cancel()

	for ev, err := range es.All(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := printer.PrintEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// withClient connects, runs fn under the request timeout and closes the
// connection.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx, cancel := requestContext(cmd.Context())
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeClient(c)

	return fn(ctx, c)
}

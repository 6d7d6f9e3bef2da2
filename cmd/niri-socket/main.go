// Command niri-socket talks to a running niri compositor over its IPC socket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZXY595/async-niri-socket/client"
	"github.com/ZXY595/async-niri-socket/internal/logging"
	"github.com/ZXY595/async-niri-socket/ipc"
	"github.com/ZXY595/async-niri-socket/protocol"
	"github.com/ZXY595/async-niri-socket/transport"
)

// GlobalFlags holds the persistent flags shared by every subcommand.
type GlobalFlags struct {
	Socket    string
	Runtime   string
	Output    string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
	LogFile   string
	LogRotate bool
}

var (
	globalFlags GlobalFlags
	logger      = zap.NewNop()
	printer     *Printer
)

var rootCmd = &cobra.Command{
	Use:   "niri-socket",
	Short: "Query and control niri over its IPC socket",
	Long: `niri-socket sends requests to a running niri compositor and prints the
replies. The socket path is taken from NIRI_SOCKET unless --socket is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lc := logging.DefaultConfig()
		lc.Level = globalFlags.LogLevel
		lc.Format = globalFlags.LogFormat
		lc.Rotate = globalFlags.LogRotate
		if globalFlags.LogFile != "" {
			lc.Output = globalFlags.LogFile
		}

		var err error
		logger, err = logging.New(lc)
		if err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		printer, err = NewPrinter(Format(globalFlags.Output), cmd.OutOrStdout())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalFlags.Socket, "socket", os.Getenv(ipc.SocketPathEnv), "path to the niri socket")
	flags.StringVar(&globalFlags.Runtime, "runtime", transport.RuntimeNet.String(), "I/O runtime: net|iouring|uring-v2")
	flags.StringVarP(&globalFlags.Output, "output", "o", string(FormatText), "output format: text|json|yaml")
	flags.DurationVar(&globalFlags.Timeout, "timeout", 5*time.Second, "timeout for a single request, 0 disables it")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "console", "log format: console|json")
	flags.StringVar(&globalFlags.LogFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&globalFlags.LogRotate, "log-rotate", false, "rotate the log file by size")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(focusedWindowCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(eventStreamCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens a client using the global flags.
func connect(ctx context.Context, opts ...protocol.Option) (*client.Client, error) {
	rt, err := transport.ParseRuntime(globalFlags.Runtime)
	if err != nil {
		return nil, err
	}

	opts = append([]protocol.Option{protocol.WithRuntime(rt), protocol.WithLogger(logger)}, opts...)

	var socket *protocol.Socket
	if globalFlags.Socket != "" {
		socket, err = protocol.ConnectTo(ctx, globalFlags.Socket, opts...)
	} else {
		socket, err = protocol.Connect(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}
	return client.New(socket, logger), nil
}

// requestContext bounds a single request by --timeout.
func requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if globalFlags.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, globalFlags.Timeout)
}

func closeClient(c *client.Client) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close connection", zap.Error(err))
	}
}

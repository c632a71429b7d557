package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/pybox/pybox/artifact"
	"github.com/pybox/pybox/config"
	"github.com/pybox/pybox/engine"
	"github.com/pybox/pybox/logger"
	"github.com/pybox/pybox/mcpserver"
	"github.com/pybox/pybox/metrics"
	"github.com/pybox/pybox/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pybox",
		Short:        "Sandboxed Python execution MCP server",
		SilenceUsage: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errors.New("a mode is required: pipe-mode, stream-mode, push-mode, or warmup-mode")
		},
	}

	root.AddCommand(newPipeCmd(), newStreamCmd(), newPushCmd(), newWarmupCmd())
	return root
}

func newPipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipe-mode",
		Short: "Serve MCP over stdin/stdout with one implicit session",
		Run: func(_ *cobra.Command, _ []string) {
			runApp(func(srv *mcpserver.MCPServer) error {
				return srv.ServeStdio()
			})
		},
	}
}

func newStreamCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "stream-mode",
		Short: "Serve MCP over streamable HTTP with multiplexed sessions",
		Run: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("port") {
				viper.Set("server.stream_port", port)
			}
			runApp(func(srv *mcpserver.MCPServer) error {
				return srv.ServeStreamableHTTP()
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port")
	return cmd
}

func newPushCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "push-mode",
		Short: "Serve MCP over SSE push channels",
		Run: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("port") {
				viper.Set("server.push_port", port)
			}
			runApp(func(srv *mcpserver.MCPServer) error {
				return srv.ServeSSE()
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 8081, "HTTP listen port")
	return cmd
}

func newWarmupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warmup-mode",
		Short: "Pre-warm the execution engine and exit",
		Run: func(_ *cobra.Command, _ []string) {
			app := fx.New(
				providers(),
				fx.Invoke(func(srv *mcpserver.MCPServer, shutdowner fx.Shutdowner) {
					srv.Warmup(context.Background())
					_ = shutdowner.Shutdown()
				}),
				fxLogger(),
			)
			app.Run()
		},
	}
}

func providers() fx.Option {
	return fx.Provide(
		config.New,
		logger.NewFromConfig,
		engine.NewEngine,
		session.NewRegistry,
		artifact.New,
		metrics.New,
		mcpserver.New,
	)
}

func fxLogger() fx.Option {
	return fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	})
}

// runApp wires the dependency graph and blocks serving the chosen transport
func runApp(serve func(*mcpserver.MCPServer) error) {
	app := fx.New(
		providers(),
		fx.Invoke(func(srv *mcpserver.MCPServer) {
			go func() {
				if err := serve(srv); err != nil {
					panic(err)
				}
			}()
		}),
		fxLogger(),
	)

	app.Run()
}

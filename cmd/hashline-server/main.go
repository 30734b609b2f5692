package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hashline-server/internal/config"
	"hashline-server/internal/filesystem"
	"hashline-server/internal/lock"
	"hashline-server/internal/mcp"
	"hashline-server/internal/roots"
	"hashline-server/internal/service"
	"hashline-server/internal/transport"
)

const shutdownGrace = 10 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hashline-server",
	Short: "Line-oriented text file editing server with content-addressed anchors",
	Long: `hashline-server exposes hash-anchored line editing over MCP stdio or HTTP.
Files are read as tagged lines ("line_num:hash|content") and edited with
anchor-addressed batches guarded by a whole-file hash.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.Flags().String("transport", "stdio", "transport protocol (stdio or http)")
	rootCmd.Flags().Int("port", 8080, "port for http transport")
	rootCmd.Flags().Int("max-file-size", 10, "maximum file size in MB")
	rootCmd.Flags().Int("timeout", 30, "operation timeout in seconds")
	rootCmd.Flags().StringArray("root", nil, "permitted root directory (repeatable)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// On stdio the protocol owns stdout, so logs go to stderr.
	logDest := os.Stdout
	if cfg.Transport == "stdio" {
		logDest = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logDest, nil))
	slog.SetDefault(logger)

	rootsMgr, err := roots.NewManager(cfg.Roots)
	if err != nil {
		return fmt.Errorf("invalid roots: %w", err)
	}

	svc, err := service.NewDefaultTextFileService(
		filesystem.NewOSAdapter(),
		lock.NewManager(),
		rootsMgr,
		logger,
		service.Options{
			MaxFileSizeMB:       cfg.MaxFileSizeMB,
			OperationTimeoutSec: cfg.OperationTimeoutSec,
		},
	)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}

	logger.Info("starting hashline-server",
		"transport", cfg.Transport,
		"roots", cfg.Roots,
		"max_file_size_mb", cfg.MaxFileSizeMB)

	switch cfg.Transport {
	case "stdio":
		processor := mcp.NewProcessor(svc)
		handler := transport.NewStdioHandler(processor, logger)
		return handler.Start(os.Stdin, os.Stdout)
	case "http":
		handler := transport.NewHTTPHandler(svc, logger)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := handler.Shutdown(ctx); err != nil {
				logger.Error("shutdown failed", "error", err)
			}
		}()

		return handler.StartServer(cfg.Port)
	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Transport)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

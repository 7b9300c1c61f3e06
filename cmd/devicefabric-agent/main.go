package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devicefabric/agent/internal/bridge"
	"github.com/devicefabric/agent/internal/config"
	"github.com/devicefabric/agent/internal/logging"
	"github.com/devicefabric/agent/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "devicefabric-agent",
	Short: "DeviceFabric Agent",
	Long:  `DeviceFabric Agent - Device metrics collection and aggregation for endpoints.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("DeviceFabric Agent %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect one device snapshot and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		b, err := bridge.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start bridge: %w", err)
		}
		defer shutdownBridge(b)

		snap, err := b.CollectSnapshot()
		if err != nil {
			return fmt.Errorf("failed to collect snapshot: %w", err)
		}
		return printJSON(snap)
	},
}

var systemInfoCmd = &cobra.Command{
	Use:   "systeminfo",
	Short: "Collect extended system information and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		b, err := bridge.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start bridge: %w", err)
		}
		defer shutdownBridge(b)

		info, err := b.SystemInfo()
		if err != nil {
			return fmt.Errorf("failed to collect system info: %w", err)
		}
		return printJSON(info)
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the metric features this build supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		b, err := bridge.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start bridge: %w", err)
		}
		defer shutdownBridge(b)

		for _, f := range b.SupportedFeatures() {
			fmt.Println(f)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent and serve metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		b, err := bridge.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to start bridge: %w", err)
		}
		defer shutdownBridge(b)

		// Warm the CPU sampler so the first served snapshot has a real
		// utilization delta instead of the fallback value.
		b.Prime()

		srv := server.New(cfg.ListenAddr, b, logger)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func shutdownBridge(b *bridge.Bridge) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.Shutdown(ctx)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(systemInfoCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

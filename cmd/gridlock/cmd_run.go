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

	"github.com/user/gridlock/internal/config"
	"github.com/user/gridlock/internal/engine"
	"github.com/user/gridlock/internal/observability"
	"github.com/user/gridlock/internal/report"
	"github.com/user/gridlock/pkg/client"
)

var (
	scenarioPath string
	targetURL    string
	runDuration  time.Duration
	outputPath   string
	historyDir   string
	otelEnabled  bool
	otelEndpoint string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load generation session",
	Long: `Run resolves configuration from the environment, applies an optional
scenario file on top, and drives the configured workers against the target
until the run duration elapses or the process is interrupted.`,
	RunE: runLoad,
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario file overriding environment configuration")
	runCmd.Flags().StringVar(&targetURL, "target", "", "target base URL (overrides TARGET_URL)")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "run duration (overrides RUN_DURATION)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "write the JSON report to this file (- for stdout)")
	runCmd.Flags().StringVar(&historyDir, "history-dir", "", "record the run summary in this directory's history database")
	runCmd.Flags().BoolVar(&otelEnabled, "otel", false, "export traces over OTLP/HTTP")
	runCmd.Flags().StringVar(&otelEndpoint, "otel-endpoint", "localhost:4318", "OTLP/HTTP collector endpoint")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if scenarioPath != "" {
		sc, err := config.LoadScenario(scenarioPath)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		if err := sc.Apply(&cfg); err != nil {
			return fmt.Errorf("apply scenario: %w", err)
		}
	}
	if targetURL != "" {
		cfg.TargetURL = targetURL
	}
	if runDuration > 0 {
		cfg.Duration = runDuration
	}

	shutdownTracing, err := observability.Setup(otelEnabled, "gridlock", otelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.TargetURL)
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("target %s not reachable: %w", cfg.TargetURL, err)
	}

	slog.Info("starting run",
		"target", cfg.TargetURL,
		"workers", cfg.Workers,
		"pool_size", cfg.PoolSize,
		"duration", cfg.Duration,
		"update_types", cfg.UpdateTypes)

	rep := engine.New(cfg, c).Run(ctx)
	rep.Print(os.Stdout)

	if outputPath != "" {
		data, err := rep.JSON()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if outputPath == "-" {
			fmt.Println(string(data))
		} else if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if historyDir != "" {
		h, err := report.OpenHistory(historyDir)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer h.Close()
		id, err := h.Record(rep)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		slog.Info("run recorded", "id", id, "dir", historyDir)
	}
	return nil
}

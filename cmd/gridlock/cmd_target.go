package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/gridlock/internal/target"
)

var (
	bindAddr     string
	poolSize     int
	idPrefix     string
	conflictRate float64
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Run the built-in target server",
	Long: `Target serves the versioned resource API the harness drives: reads,
version-checked field updates, and status transitions. A conflict rate above
zero silently bumps versions ahead of a fraction of updates to force genuine
stale-token conflicts.`,
	RunE: runTarget,
}

func init() {
	targetCmd.Flags().StringVar(&bindAddr, "bind", ":8080", "address to bind the HTTP server to")
	targetCmd.Flags().IntVar(&poolSize, "pool-size", 100, "number of resources to seed")
	targetCmd.Flags().StringVar(&idPrefix, "id-prefix", "task", "resource id prefix")
	targetCmd.Flags().Float64Var(&conflictRate, "conflict-rate", 0, "fraction of updates to hit with an injected conflict")
}

func runTarget(cmd *cobra.Command, args []string) error {
	srv := target.New(target.Config{
		PoolSize:     poolSize,
		IDPrefix:     idPrefix,
		ConflictRate: conflictRate,
	}, bindAddr)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("target server listening", "addr", bindAddr, "pool_size", poolSize, "conflict_rate", conflictRate)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("target server stopped")
	return nil
}

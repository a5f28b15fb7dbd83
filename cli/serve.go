package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
	bridgeotel "github.com/ajitnk-lab/agentcore-bridge/otel"
	"github.com/ajitnk-lab/agentcore-bridge/server"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().String("config", "", "Path to agentbridge.yaml")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().String("host", "", "Listen host (overrides config)")
	cmd.Flags().String("sqlite-path", "", "Path to SQLite audit database (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFromFlags(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if sqlitePath, _ := cmd.Flags().GetString("sqlite-path"); sqlitePath != "" {
		cfg.Audit.SQLitePath = sqlitePath
	}

	logger := newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := bridgeotel.NewProviders(ctx, bridgeotel.ProviderConfig{
		ServiceName:   "agentbridge",
		TraceEndpoint: cfg.Telemetry.TraceEndpoint,
		Insecure:      cfg.Telemetry.Insecure,
	})
	if err != nil {
		return exitError(exitRuntime, "initializing telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	observer, err := bridgeotel.NewBridgeObserver(
		otelapi.GetMeterProvider().Meter("agentbridge"),
		otelapi.GetTracerProvider().Tracer("agentbridge"),
	)
	if err != nil {
		return exitError(exitRuntime, "initializing observability: %v", err)
	}
	bridge.SetObserver(observer)
	defer bridge.SetObserver(nil)

	rt, err := server.NewRuntime(cfg, logger)
	if err != nil {
		return exitError(exitConfig, "building runtime: %v", err)
	}
	defer func() {
		_ = rt.Close()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "agentbridge listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	if err := rt.ListenAndServe(ctx); err != nil {
		return exitError(exitRuntime, "server error: %v", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/logai/logai/internal/server"
	"github.com/logai/logai/internal/server/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search engine as an HTTP service",
	Long: `Run the HTTP API. Searches, spill read-back, health, version, and
metrics are served until the process receives SIGINT or SIGTERM.

Example:
  logai serve
  logai serve --host 0.0.0.0 --port 9000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	overrides := map[string]any{}
	srvOverride := map[string]any{}
	if serveHost != "" {
		srvOverride["host"] = serveHost
	}
	if servePort != 0 {
		srvOverride["port"] = servePort
	}
	if len(srvOverride) > 0 {
		overrides["server"] = srvOverride
	}

	eng, err := buildEngine(ctx, overrides)
	if err != nil {
		return err
	}
	defer eng.close(context.Background())

	handlers.InitHealthManager(handlers.GetVersionInfo().Version)
	registerHealthCheckers(eng)

	eng.housekeeping(ctx)

	deps := server.Deps{
		Search: &handlers.SearchHandler{Exec: eng.exec, Log: eng.log},
		Spill:  &handlers.SpillHandler{Store: eng.store, MaxBytes: eng.cfg.Output.ReadMaxBytes},
		Log:    eng.log,
	}
	if eng.metrics != nil {
		deps.Metrics = promhttp.Handler()
		deps.Summary = &handlers.SummaryHandler{Metrics: eng.metrics}
	}

	srv := server.New(eng.cfg.Server.Host, eng.cfg.Server.Port, deps)

	eng.log.Info("engine ready",
		zap.String("session_id", eng.sessionID),
		zap.String("host", eng.cfg.Server.Host),
		zap.Int("port", srv.Port()),
		zap.Int("services", eng.catalog.Len()),
		zap.Bool("distributed", eng.cfg.Redis.Enabled))

	err = srv.Start(ctx, server.Timeouts{
		Read:  eng.cfg.Server.ReadTimeout,
		Write: eng.cfg.Server.WriteTimeout,
		Idle:  eng.cfg.Server.IdleTimeout,
	}, eng.cfg.Server.ShutdownTimeout)
	if err != nil {
		eng.log.Error("server failed", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
	}

	fmt.Fprintln(os.Stderr, "shutdown complete")
	return nil
}

func registerHealthCheckers(eng *engine) {
	m := handlers.GetHealthManager()
	m.RegisterChecker("catalog", catalogChecker{eng: eng})
	m.RegisterChecker("scanner", scannerChecker{eng: eng})
	m.RegisterChecker("output_dir", outputDirChecker{eng: eng})
	if eng.cfg.Redis.Enabled {
		m.RegisterChecker("coordination", coordChecker{eng: eng})
	}
}

type catalogChecker struct{ eng *engine }

func (c catalogChecker) CheckHealth(context.Context) error {
	if c.eng.catalog.Len() == 0 {
		return fmt.Errorf("catalog is empty")
	}
	return nil
}

type scannerChecker struct{ eng *engine }

func (c scannerChecker) CheckHealth(context.Context) error {
	if !c.eng.scanner.Available() {
		return fmt.Errorf("no scanning tool on PATH")
	}
	return nil
}

type outputDirChecker struct{ eng *engine }

func (c outputDirChecker) CheckHealth(context.Context) error {
	info, err := os.Stat(c.eng.store.Root())
	if err != nil {
		return fmt.Errorf("output root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output root %s is not a directory", c.eng.store.Root())
	}
	return nil
}

type coordChecker struct{ eng *engine }

func (c coordChecker) CheckHealth(ctx context.Context) error {
	return c.eng.coord.Ping(ctx)
}

// Package cmd implements the logai command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logai/logai/internal/config"
	"github.com/logai/logai/internal/observability"
	"github.com/logai/logai/internal/server/handlers"
)

var rootCmd = &cobra.Command{
	Use:   "logai",
	Short: "Concurrent log search across service log files",
	Long: `logai searches plain-text service logs by literal pattern over a time
window. Service names are resolved loosely against a catalog, scans fan
out under bounded concurrency, results are cached and spilled to disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagLogLevel   string
	flagLogProfile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&flagLogProfile, "log-profile", "", "Log output profile (STRUCTURED|CONSOLE)")
}

// SetVersionInfo records build identity injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	handlers.SetVersionInfo(version, commit, buildDate)
	rootCmd.Version = version
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if code := exitCodeOf(err); code != 0 {
			return code
		}
		return 1
	}
	return 0
}

// loadConfig applies CLI flag overrides on top of env and defaults.
func loadConfig(ctx context.Context, extra ...map[string]any) (*config.Config, error) {
	overrides := map[string]any{}
	logging := map[string]any{}
	if flagLogLevel != "" {
		logging["level"] = flagLogLevel
	}
	if flagLogProfile != "" {
		logging["profile"] = flagLogProfile
	}
	if len(logging) > 0 {
		overrides["logging"] = logging
	}

	all := append([]map[string]any{overrides}, extra...)
	return config.Load(ctx, all...)
}

// initLogging replaces the default console logger with the configured one.
func initLogging(cfg *config.Config) (func(), error) {
	_, flush, err := observability.Init(cfg.Logging.Level, cfg.Logging.Profile)
	if err != nil {
		return nil, err
	}
	return flush, nil
}

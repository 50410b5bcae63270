// Package observability wires zap logging for the engine and CLI.
//
// Two profiles exist: STRUCTURED emits JSON to stderr for service
// deployments, CONSOLE emits human-readable lines for interactive use.
// Search results go to stdout; logs and the JSONL sideband never do.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for command-line entry points. It
// defaults to a console logger at info level and is replaced by Init once
// configuration is loaded.
var CLILogger = mustConsole("info")

// Init builds the configured logger and installs it as CLILogger and the
// zap global. The returned flush must run at shutdown.
func Init(level, profile string) (log *zap.Logger, flush func(), err error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToUpper(profile) {
	case "", "STRUCTURED":
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	case "CONSOLE":
		cfg = consoleConfig()
	default:
		return nil, nil, fmt.Errorf("unknown logging profile %q", profile)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err = cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	CLILogger = log
	restore := zap.ReplaceGlobals(log)
	return log, func() {
		restore()
		_ = log.Sync()
	}, nil
}

func consoleConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return cfg
}

func mustConsole(level string) *zap.Logger {
	cfg := consoleConfig()
	lvl, _ := zapcore.ParseLevel(level)
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		panic("observability: default logger: " + err.Error())
	}
	return log
}

package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/mosaic/internal/config"
	"github.com/rshade/mosaic/internal/logging"
)

// setupLogging configures logging from the config file's log section,
// environment variables, and CLI flags, in rising precedence. The base
// logger is attached to the command context along with a trace ID; the
// package logger is its "cli" component child. The returned closer
// releases the log file, if any.
func setupLogging(cmd *cobra.Command) (io.Closer, error) {
	logCfg, err := resolveLogConfig(cmd)
	if err != nil {
		return nil, err
	}

	var base zerolog.Logger
	var closer io.Closer
	if cmd.Name() == dashCmdName && logCfg.File == "" {
		// The dashboard owns the terminal while it runs, so without a log
		// file there is nowhere safe to write.
		base = zerolog.Nop()
	} else {
		base, closer = logging.New(logCfg)
	}
	logger = logging.ComponentLogger(base, "cli")

	ctx, traceID := logging.GetOrGenerateTraceID(cmd.Context())
	ctx = base.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().
		Str("command", cmd.Name()).
		Str(logging.TraceIDField, traceID).
		Msg("command started")
	return closer, nil
}

// resolveLogConfig merges the three logging configuration layers. The
// config file is read best-effort here: a missing or broken file leaves
// the defaults in place and is reported by the subcommand's own load.
func resolveLogConfig(cmd *cobra.Command) (logging.Config, error) {
	var fileCfg config.LogConfig
	if cfg, err := config.Load(configPath(cmd)); err == nil {
		fileCfg = cfg.Log
	}

	logCfg := logging.Config{
		Level:  fileCfg.Level,
		Format: fileCfg.Format,
		File:   fileCfg.File,
	}
	logCfg.ApplyEnv()

	if cmd.Flags().Changed("log-format") {
		raw, _ := cmd.Flags().GetString("log-format")
		format, err := logging.ParseFormat(raw)
		if err != nil {
			return logging.Config{}, err
		}
		logCfg.Format = format
	}
	if cmd.Flags().Changed("log-file") {
		logCfg.File, _ = cmd.Flags().GetString("log-file")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	return logCfg, nil
}

// cleanupLogging closes the log file handle opened by setupLogging.
func cleanupLogging(closer io.Closer) error {
	if closer == nil {
		return nil
	}
	return closer.Close()
}

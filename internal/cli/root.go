// Package cli wires the notekit commands: release versioning from commit
// history and vault query-block scanning.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kmoran/notekit/internal/config"
	"github.com/kmoran/notekit/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

type configKey struct{}

// NewRootCmd creates the root Cobra command for the notekit CLI. Logging and
// configuration are set up in PersistentPreRunE so every subcommand finds a
// logger and a loaded config in its context.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notekit",
		Short:   "Tooling for the notekit note-plugin",
		Long:    "Notekit: compute plugin releases from commit history and inspect vault query blocks",
		Version: ver,
		Example: `  # Print the next version the commit history calls for
  notekit version next

  # Rewrite manifest.json and versions.json for the next release
  notekit version bump

  # Preview a release without touching any file
  notekit version bump --dry-run

  # Classify every query block in a vault, reading at most 10 files at once
  notekit scan ~/vault --batch-size 10`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().
		String("log-format", "", "log format: console or json (default depends on the terminal)")
	cmd.AddCommand(newVersionCmd(), newScanCmd())

	return cmd
}

// setup loads configuration, builds the logger, and stores both in the
// command's context.
func setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		logCfg.Format = format
	}

	ctx := cmd.Context()
	runID := logging.GetOrGenerateRunID(ctx)
	ctx = logging.ContextWithRunID(ctx, runID)

	logger = logging.ComponentLogger(logging.New(logCfg), "cli").
		With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)
	ctx = context.WithValue(ctx, configKey{}, cfg)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).Str("command", cmd.Name()).Msg("command started")
	return nil
}

// configFromContext returns the config stored by setup, or the defaults when
// a command runs outside the usual PersistentPreRunE path (as in tests).
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.New()
}

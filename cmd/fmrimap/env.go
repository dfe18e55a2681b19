package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/config"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/pathutil"
	"github.com/fyrsmithlabs/fmrimap/internal/prompt"
	"github.com/fyrsmithlabs/fmrimap/internal/steps"
)

// env is what every command needs: configuration with flags applied and a
// logger.
type env struct {
	cfg    *config.Config
	logger *logging.Logger
}

// loadEnv loads configuration, applies global flags and builds the logger.
func loadEnv() (*env, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}

	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	if plainFlag {
		cfg.UI.Plain = true
	}
	if manifestFlag != "" {
		cfg.Steps.Manifest = manifestFlag
	}
	if metricsFileFlag != "" {
		cfg.Metrics.TextFile = metricsFileFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logCfg.Output = cfg.Logging.Output
	logCfg.Fields["version"] = version

	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// rootArg picks the positional root over --root.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return rootFlag
}

// resolveRoot is rootArg resolved, defaulting to the working directory.
func resolveRoot(args []string) (string, error) {
	raw := rootArg(args)
	if raw == "" {
		raw = "."
	}
	return pathutil.Resolve(raw)
}

func (e *env) prompter(cmd *cobra.Command) prompt.Prompter {
	if e.cfg.UI.Plain {
		return prompt.NewLine(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return prompt.NewTUI(cmd.InOrStdin(), cmd.OutOrStdout())
}

// collaborators loads the steps manifest. No manifest means no
// collaborators.
func (e *env) collaborators(cmd *cobra.Command) ([]steps.Collaborator, error) {
	if e.cfg.Steps.Manifest == "" {
		e.logger.Debug(cmd.Context(), "no steps manifest configured")
		return nil, nil
	}

	m, err := steps.LoadManifest(e.cfg.Steps.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps manifest: %w", err)
	}
	e.logger.Debug(cmd.Context(), "steps manifest loaded",
		zap.String("path", e.cfg.Steps.Manifest),
		zap.Int("collaborators", len(m.Collaborators)),
	)

	// Collaborator output goes to stderr so it never mixes with prompts.
	return m.Build(cmd.ErrOrStderr(), cmd.ErrOrStderr()), nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

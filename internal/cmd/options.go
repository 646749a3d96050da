package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"n5toc/internal/config"
	"n5toc/internal/logger"
)

// loadConfig resolves the configuration for cmd: file values over defaults,
// then any flag the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	var (
		listenPtr  *string
		rootPtr    *string
		excludePtr *[]string
		levelPtr   *string
		timeoutPtr *time.Duration
	)
	if flags.Changed("listen") {
		v, _ := flags.GetString("listen")
		listenPtr = &v
	}
	if flags.Changed("root-dir") {
		v, _ := flags.GetString("root-dir")
		rootPtr = &v
	}
	if flags.Changed("exclude") {
		v, _ := flags.GetStringArray("exclude")
		excludePtr = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		levelPtr = &v
	}

	if flags.Changed("scan-timeout") {
		v, _ := flags.GetDuration("scan-timeout")
		timeoutPtr = &v
	}

	cfg.MergeWithFlags(listenPtr, rootPtr, excludePtr, timeoutPtr, levelPtr)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return cfg, log, nil
}

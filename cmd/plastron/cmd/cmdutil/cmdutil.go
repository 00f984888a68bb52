// Package cmdutil holds the config/logger/repository bootstrap shared by
// every plastron subcommand.
package cmdutil

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/umd-lib/plastron-go/internal/merrors"
	"github.com/umd-lib/plastron-go/internal/mlog"
	"github.com/umd-lib/plastron-go/pkg/config"
	"github.com/umd-lib/plastron-go/pkg/repo"
)

// ConfigFlag is the persistent flag name carrying the path to the YAML
// configuration file, grounded on components/mdz/cmd/root.go's "config"
// flag.
const ConfigFlag = "config"

// LoadConfig reads the --config file and returns it along with a warning
// message for every unresolved ${NAME} environment reference found in it. It does not
// log those itself, since the logger to use depends on the config it is
// loading (REPOSITORY.LOGGING_CONFIG); callers that need them logged should
// use Bootstrap instead.
func LoadConfig(cmd *cobra.Command) (*config.Config, []string, error) {
	path, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string

	cfg, err := config.Load(path, func(name string) {
		warnings = append(warnings, name)
	})
	if err != nil {
		return nil, nil, err
	}

	return cfg, warnings, nil
}

// NewLogger builds the logger every subcommand uses. --debug raises the
// level to debug; REPOSITORY.LOGGING_CONFIG, if set, routes output to that
// file via GoLogger instead of the default console-oriented ZapLogger.
func NewLogger(cmd *cobra.Command, cfg *config.Config) (mlog.Logger, error) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}

	level := mlog.InfoLevel
	if debug {
		level = mlog.DebugLevel
	}

	if cfg != nil && cfg.Repository.LoggingConfig != "" {
		f, err := os.OpenFile(cfg.Repository.LoggingConfig, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, merrors.ConfigError{Key: "REPOSITORY.LOGGING_CONFIG", Err: err}
		}

		return mlog.NewGoLogger(level, f), nil
	}

	return mlog.NewZapLogger(level, debug)
}

// Bootstrap loads config, builds the logger it selects, and constructs the
// repository facade subcommands operate against, in that order (the logger
// choice depends on the config, and the config's unresolved-environment-
// reference warnings are only logged once the real logger exists).
func Bootstrap(cmd *cobra.Command) (*repo.Repository, mlog.Logger, *config.Config, error) {
	cfg, warnings, err := LoadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := NewLogger(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	for _, name := range warnings {
		logger.Warnf("unresolved environment reference: %s", name)
	}

	r, err := repo.FromConfig(cfg.Repository, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return r, logger, cfg, nil
}

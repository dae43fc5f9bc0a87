package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"wavepipe/internal/config"
	"wavepipe/internal/logging"
)

// skipConfigAnnotation marks commands that must run without a loadable
// config file (config init).
const skipConfigAnnotation = "skipConfigLoad"

// commandContext loads the config and the logger at most once per process
// and shares them between subcommands.
type commandContext struct {
	configFlag *string
	configPath string

	load   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) bootstrap() {
	c.load.Do(func() {
		var flagValue string
		if c.configFlag != nil {
			flagValue = strings.TrimSpace(*c.configFlag)
		}
		cfg, path, _, err := config.Load(flagValue)
		if err == nil {
			err = cfg.EnsureDirectories()
		}
		if err != nil {
			c.err = err
			return
		}
		c.config, c.configPath = cfg, path
		c.logger, c.err = logging.NewFromConfig(cfg)
	})
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.bootstrap()
	if c.config == nil {
		return nil, c.err
	}
	return c.config, nil
}

// openApp assembles the runtime components on top of the loaded config.
func (c *commandContext) openApp(opts appOptions) (*app, error) {
	c.bootstrap()
	if c.err != nil {
		return nil, c.err
	}
	return newApp(c.config, c.logger, opts)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

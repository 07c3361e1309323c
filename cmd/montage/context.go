package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/daemonctl"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverURL resolves the daemon base URL: the --server flag wins, otherwise
// the configured API bind address.
func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if url := strings.TrimSpace(*c.serverFlag); url != "" {
			return url
		}
	}
	bind := config.Default().Paths.APIBind
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		bind = cfg.Paths.APIBind
	}
	return "http://" + bind
}

func (c *commandContext) client() *daemonctl.Client {
	return daemonctl.NewClient(c.serverURL())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
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

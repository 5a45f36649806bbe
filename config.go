package mq

import (
	"strings"

	"github.com/spf13/viper"
)

// DefaultPluginDir the directory scanned for plugins when MQ_PLUGIN_DIR is not set.
// it is a variable so it can be set at link time:
//
//	go build -ldflags "-X github.com/jacklaaa89/mq.DefaultPluginDir=/opt/mq/plugins"
var DefaultPluginDir = "/usr/local/lib/mq/plugins"

// environment keys, read with the MQ_ prefix.
const (
	keyPluginDir   = "plugin_dir"   // MQ_PLUGIN_DIR
	keyPluginDebug = "plugin_debug" // MQ_PLUGIN_DEBUG
)

// Config the process wide settings used when initialising the default registry.
type Config struct {
	// PluginDir the directory which is scanned for plugins.
	PluginDir string
	// Verbose enables diagnostic logging while plugins are discovered.
	Verbose bool
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	return configFrom(newViper())
}

// newViper returns a viper instance bound to the MQ_ environment.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MQ")
	v.SetDefault(keyPluginDir, DefaultPluginDir)
	_ = v.BindEnv(keyPluginDir)
	_ = v.BindEnv(keyPluginDebug)
	return v
}

// configFrom builds a Config from v.
func configFrom(v *viper.Viper) Config {
	return Config{
		PluginDir: v.GetString(keyPluginDir),
		Verbose:   truthy(v.GetString(keyPluginDebug)),
	}
}

// truthy any non-empty value other than an explicit "0" or "false" enables a toggle.
func truthy(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != "0" && !strings.EqualFold(s, "false")
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "LOGICPROBE"

// ConfigFileName is the file name searched for during discovery.
const ConfigFileName = "logicprobe.yaml"

// settingKeys lists every key bound to an environment variable.
// Keys without defaults must be bound explicitly or viper never sees them.
var settingKeys = []string{
	"subscription_id",
	"tenant_id",
	"application_id",
	"secret",
	"authority_host",
	"resource",
	"management_endpoint",
	"api_version",
	"poll.interval",
	"poll.timeout",
	"poll.max_polls",
	"http.timeout",
	"log.level",
	"log.json",
}

// Loader loads [Config] values using Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a [Loader] with defaults and environment bindings applied.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range settingKeys {
		_ = v.BindEnv(key)
	}

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("authority_host", d.AuthorityHost)
	v.SetDefault("resource", d.Resource)
	v.SetDefault("management_endpoint", d.ManagementEndpoint)
	v.SetDefault("api_version", d.APIVersion)
	v.SetDefault("poll.interval", d.Poll.Interval)
	v.SetDefault("poll.timeout", d.Poll.Timeout)
	v.SetDefault("poll.max_polls", d.Poll.MaxPolls)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// Load discovers a config file and returns the merged configuration.
//
// A missing config file is not an error; defaults and environment
// variables are used instead.
func (l *Loader) Load() (*Config, error) {
	if path := discoverConfigFile(); path != "" {
		return l.LoadFromFile(path)
	}
	return l.unmarshal()
}

// LoadFromFile reads the given YAML file and returns the merged configuration.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// discoverConfigFile returns the first existing config file, or "".
func discoverConfigFile() string {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
		return envPath
	}

	var candidates []string
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "logicprobe", ConfigFileName))
	}
	candidates = append(candidates, ConfigFileName)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Package config provides configuration loading and management for logicprobe.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. Credentials (subscription, tenant, application id and secret)
// have no defaults and are not validated at load time: a missing value surfaces as
// an empty string and later as an authentication failure, matching how the test
// harnesses using this tool expect settings to behave.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [PollConfig] bounds the run completion wait
//
// Configuration priority (highest to lowest):
//  1. Environment variables (LOGICPROBE_ prefix, e.g. LOGICPROBE_TENANT_ID)
//  2. Config file specified by LOGICPROBE_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/logicprobe/logicprobe.yaml
//     - macOS: ~/Library/Application Support/logicprobe/logicprobe.yaml
//     - Windows: %APPDATA%\logicprobe\logicprobe.yaml
//  4. ./logicprobe.yaml
//  5. [DefaultConfig] defaults
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default endpoint and polling values.
const (
	DefaultAuthorityHost      = "https://login.microsoftonline.com"
	DefaultResource           = "https://management.core.windows.net/"
	DefaultManagementEndpoint = "https://management.azure.com"
	DefaultAPIVersion         = "2016-06-01"
	DefaultPollInterval       = 50 * time.Millisecond
	DefaultPollTimeout        = 5 * time.Minute
	DefaultHTTPTimeout        = 100 * time.Second
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// SubscriptionID is the Azure subscription holding the workflows.
	SubscriptionID string `mapstructure:"subscription_id"`

	// TenantID is the directory (tenant) used for token acquisition.
	TenantID string `mapstructure:"tenant_id"`

	// ApplicationID is the client id of the service principal.
	ApplicationID string `mapstructure:"application_id"`

	// Secret is the client secret of the service principal.
	Secret string `mapstructure:"secret"`

	// AuthorityHost is the identity provider base URL.
	// Default: "https://login.microsoftonline.com"
	AuthorityHost string `mapstructure:"authority_host"`

	// Resource is the audience requested for the management token.
	// Default: "https://management.core.windows.net/"
	Resource string `mapstructure:"resource"`

	// ManagementEndpoint is the base URL of the management API.
	// Default: "https://management.azure.com"
	ManagementEndpoint string `mapstructure:"management_endpoint"`

	// APIVersion is sent as the api-version query parameter on every
	// management call. Default: "2016-06-01"
	APIVersion string `mapstructure:"api_version"`

	// Poll bounds the wait for a run to finish.
	Poll PollConfig `mapstructure:"poll"`

	// HTTP contains transport settings.
	HTTP HTTPConfig `mapstructure:"http"`

	// Log contains logger settings.
	Log LogConfig `mapstructure:"log"`
}

// PollConfig controls how run completion is awaited.
type PollConfig struct {
	// Interval is the fixed delay between two status reads.
	// Default: 50ms
	Interval time.Duration `mapstructure:"interval"`

	// Timeout is the overall bound on waiting for a terminal status.
	// Default: 5m
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxPolls caps the number of status reads. Zero means no count bound;
	// Timeout still applies.
	MaxPolls int `mapstructure:"max_polls"`
}

// HTTPConfig contains transport settings shared by the management and
// callback clients.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Default: 100s
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info"
	Level string `mapstructure:"level"`

	// JSON switches the logger to the JSON formatter.
	JSON bool `mapstructure:"json"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// Credentials are left empty.
func DefaultConfig() *Config {
	return &Config{
		AuthorityHost:      DefaultAuthorityHost,
		Resource:           DefaultResource,
		ManagementEndpoint: DefaultManagementEndpoint,
		APIVersion:         DefaultAPIVersion,
		Poll: PollConfig{
			Interval: DefaultPollInterval,
			Timeout:  DefaultPollTimeout,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ErrMissingSetting is returned by [Config.Validate] when a required setting is empty.
var ErrMissingSetting = errors.New("missing required setting")

// Validate reports the first missing credential setting.
//
// Validate is not called by [Loader]; commands that want to fail early
// call it explicitly.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"subscription_id", c.SubscriptionID},
		{"tenant_id", c.TenantID},
		{"application_id", c.ApplicationID},
		{"secret", c.Secret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, r.key)
		}
	}
	if c.Poll.Interval < 0 || c.Poll.Timeout < 0 || c.Poll.MaxPolls < 0 {
		return fmt.Errorf("poll bounds must not be negative")
	}
	return nil
}

// Package config provides a reusable loader for Elara node configuration
// files and environment variables.
//
// Version: v0.1.0
package config

import (
	"time"

	"github.com/spf13/viper"

	"elara/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// NetworkConfig is the unified configuration for an Elara network node. It
// is JSON (not YAML) on disk: the source project's config file is JSON and
// we preserve that wire shape exactly.
type NetworkConfig struct {
	Identity struct {
		Path       string `mapstructure:"path" json:"path"`
		EntityType string `mapstructure:"entity_type" json:"entity_type"`
		Profile    string `mapstructure:"profile" json:"profile"`
	} `mapstructure:"identity" json:"identity"`

	Server struct {
		Host     string `mapstructure:"host" json:"host"`
		Port     int    `mapstructure:"port" json:"port"`
		NodeType string `mapstructure:"node_type" json:"node_type"`
	} `mapstructure:"server" json:"server"`

	Storage struct {
		DataDir string `mapstructure:"data_dir" json:"data_dir"`
		CacheSize int  `mapstructure:"cache_size" json:"cache_size"`
	} `mapstructure:"storage" json:"storage"`

	RateLimit struct {
		MaxRequests   int `mapstructure:"max_requests" json:"max_requests"`
		WindowSeconds int `mapstructure:"window_seconds" json:"window_seconds"`
	} `mapstructure:"rate_limit" json:"rate_limit"`

	Discovery struct {
		SeedPeersFile  string `mapstructure:"seed_peers_file" json:"seed_peers_file"`
		PeersFile      string `mapstructure:"peers_file" json:"peers_file"`
		RemoteFallback string `mapstructure:"remote_fallback" json:"remote_fallback"`
		LANEnabled     bool   `mapstructure:"lan_enabled" json:"lan_enabled"`
	} `mapstructure:"discovery" json:"discovery"`

	Client struct {
		TimeoutSeconds     int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
		PingTimeoutSeconds int `mapstructure:"ping_timeout_seconds" json:"ping_timeout_seconds"`
	} `mapstructure:"client" json:"client"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// ClientTimeout returns the configured client timeout as a duration,
// defaulting to 10s when unset — the spec's documented default.
func (c *NetworkConfig) ClientTimeout() time.Duration {
	if c.Client.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// PingTimeout returns the configured ping timeout, defaulting to 1s.
func (c *NetworkConfig) PingTimeout() time.Duration {
	if c.Client.PingTimeoutSeconds <= 0 {
		return 1 * time.Second
	}
	return time.Duration(c.Client.PingTimeoutSeconds) * time.Second
}

// applyDefaults fills in the zero-value fields a fresh node needs to boot
// without a hand-authored config file.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("identity.path", "elara_identity.json")
	v.SetDefault("identity.entity_type", "AI")
	v.SetDefault("identity.profile", "A")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7340)
	v.SetDefault("server.node_type", "leaf")
	v.SetDefault("storage.data_dir", utils.EnvOrDefault("ELARA_DATA_DIR", "elara_data"))
	v.SetDefault("storage.cache_size", 512)
	v.SetDefault("rate_limit.max_requests", 60)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("discovery.lan_enabled", true)
	v.SetDefault("client.timeout_seconds", 10)
	v.SetDefault("client.ping_timeout_seconds", 1)
	v.SetDefault("logging.level", "info")
}

// Load reads path (JSON) if given, merges ELARA_-prefixed environment
// overrides, and returns the resulting NetworkConfig. It never touches a
// package-level global — callers own the result and pass it explicitly
// into the service container.
func Load(path string) (*NetworkConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, utils.Wrap(err, "load config "+path)
		}
	}

	v.SetEnvPrefix("ELARA")
	v.AutomaticEnv()

	var cfg NetworkConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration using the ELARA_CONFIG_PATH environment
// variable, defaulting to no file (defaults + env overrides only).
func LoadFromEnv() (*NetworkConfig, error) {
	return Load(utils.EnvOrDefault("ELARA_CONFIG_PATH", ""))
}

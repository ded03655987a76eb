// Package configd provides loading and parsing of the relayd configuration
// file using Viper. It defines the daemon configuration schema and its defaults.
package configd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/protocol"
)

// Framing strategies understood by the listener.
const (
	FramingShortRead = "short_read"
	FramingEOF       = "eof"
)

// Config represents the full structure of relayd.yaml.
type Config struct {
	Listen     string         `mapstructure:"listen"`      // host:port, default localhost:9999
	Host       string         `mapstructure:"host"`        // registered host backend name
	HostConfig map[string]any `mapstructure:"host_config"` // passed to Host.Configure
	Relay      RelayConfig    `mapstructure:"relay"`
	Listener   ListenerConfig `mapstructure:"listener"`
	Commands   CommandsConfig `mapstructure:"commands"`
	Journal    JournalConfig  `mapstructure:"journal"`
	Logger     logging.Config `mapstructure:"log"`
}

// RelayConfig controls the tick driven controller.
type RelayConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// ListenerConfig controls the network side.
type ListenerConfig struct {
	AcceptTimeout time.Duration `mapstructure:"accept_timeout"` // bounds how long Stop waits on accept
	AcceptBackoff time.Duration `mapstructure:"accept_backoff"` // pause after a failed accept
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`   // per connection
	StopTimeout   time.Duration `mapstructure:"stop_timeout"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	Framing       string        `mapstructure:"framing"` // "short_read" or "eof"
}

// CommandsConfig trims the dispatch table.
type CommandsConfig struct {
	Disabled []string `mapstructure:"disabled"`
}

// JournalConfig enables the sqlite outcome journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", protocol.DefaultAddr)
	v.SetDefault("host", "scene")
	v.SetDefault("host_config", map[string]any{})
	v.SetDefault("relay.tick_interval", 100*time.Millisecond)
	v.SetDefault("listener.accept_timeout", time.Second)
	v.SetDefault("listener.accept_backoff", time.Second)
	v.SetDefault("listener.read_timeout", 5*time.Second)
	v.SetDefault("listener.stop_timeout", 2*time.Second)
	v.SetDefault("listener.chunk_size", 8192)
	v.SetDefault("listener.framing", FramingShortRead)
	v.SetDefault("commands.disabled", []string{})
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.to_stdout", true)
}

// LoadConfig reads relayd.yaml from path, or from the configloader search
// path when path is empty. A missing file on the search path is not an
// error: the defaults are used. RELAYD_* environment variables override
// file values (e.g. RELAYD_LISTEN, RELAYD_RELAY_TICK_INTERVAL).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("RELAYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		resolved, err := configloader.ResolveConfigPath("relayd", "relayd.yaml")
		if err != nil && !errors.Is(err, configloader.ErrNoConfig) {
			return nil, err
		}
		path = resolved
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the relay cannot run with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("invalid config: listen address is empty")
	}
	if c.Host == "" {
		return fmt.Errorf("invalid config: host is empty")
	}
	if c.Relay.TickInterval <= 0 {
		return fmt.Errorf("invalid config: relay.tick_interval must be positive")
	}
	if c.Listener.AcceptTimeout <= 0 {
		return fmt.Errorf("invalid config: listener.accept_timeout must be positive")
	}
	if c.Listener.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: listener.chunk_size must be positive")
	}
	switch c.Listener.Framing {
	case FramingShortRead, FramingEOF:
	default:
		return fmt.Errorf("invalid config: unknown listener.framing %q", c.Listener.Framing)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("invalid config: journal.path required when journal is enabled")
	}
	return nil
}

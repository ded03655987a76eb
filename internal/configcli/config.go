// Package configcli handles loading the local relayctl configuration:
// which relay to talk to, which user name to stamp on messages and where the
// outcome journal lives.
package configcli

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/internal/logging"
	"github.com/mfulz/scenerelay/protocol"
)

const DefaultDialTimeout = 2 * time.Second

// Config holds the entire client-side relayctl configuration.
type Config struct {
	Addr        string         `yaml:"addr"`
	User        string         `yaml:"user"`
	DialTimeout time.Duration  `yaml:"dial_timeout"`
	Journal     string         `yaml:"journal"` // path of the relayd journal, for `history`
	Logger      logging.Config `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Addr:        protocol.DefaultAddr,
		User:        currentUser(),
		DialTimeout: DefaultDialTimeout,
		Logger:      logging.Config{Level: "warn", ToStderr: true},
	}
}

// LoadConfig reads relayctl.yaml from path, or from the configloader search
// path when path is empty. Unset fields keep their defaults. The result is
// registered with configloader.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		resolved, err := configloader.ResolveConfigPath("relayctl", "relayctl.yaml")
		if err != nil && !errors.Is(err, configloader.ErrNoConfig) {
			return nil, err
		}
		path = resolved
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if cfg.Addr == "" {
		cfg.Addr = protocol.DefaultAddr
	}
	if cfg.User == "" {
		cfg.User = currentUser()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	configloader.ReplaceConfig(cfg)
	return cfg, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

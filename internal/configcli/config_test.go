package configcli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mfulz/scenerelay/internal/configloader"
	"github.com/mfulz/scenerelay/protocol"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(configloader.EnvConfig, "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != protocol.DefaultAddr || cfg.DialTimeout != DefaultDialTimeout || cfg.User == "" {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := configloader.MustGetConfig[*Config](); got != cfg {
		t.Error("config not registered")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayctl.yaml")
	data := []byte(`addr: 127.0.0.1:7777
user: alice
dial_timeout: 500ms
journal: /var/lib/scenerelay/journal.db
log:
  level: debug
  to_stdout: true
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7777" || cfg.User != "alice" || cfg.DialTimeout != 500*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Journal != "/var/lib/scenerelay/journal.db" || cfg.Logger.Level != "debug" || !cfg.Logger.ToStdout {
		t.Errorf("journal/log = %q %+v", cfg.Journal, cfg.Logger)
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayctl.yaml")
	if err := os.WriteFile(path, []byte("user: bob\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User != "bob" || cfg.Addr != protocol.DefaultAddr || cfg.DialTimeout != DefaultDialTimeout {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("addr: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

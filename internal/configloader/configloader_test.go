package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sampleConfig struct{ Name string }

func TestRegistry(t *testing.T) {
	if _, ok := TryGetConfig[*sampleConfig](); ok {
		t.Fatal("unexpected config before registration")
	}

	RegisterConfig(&sampleConfig{Name: "first"})
	if got := MustGetConfig[*sampleConfig](); got.Name != "first" {
		t.Errorf("MustGetConfig = %q", got.Name)
	}

	ReplaceConfig(&sampleConfig{Name: "second"})
	if got := MustGetConfig[*sampleConfig](); got.Name != "second" {
		t.Errorf("after ReplaceConfig = %q", got.Name)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	RegisterConfig(&sampleConfig{Name: "third"})
}

func TestResolveConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayd.yaml")
	t.Setenv(EnvConfig, path)

	got, err := ResolveConfigPath("relayd", "relayd.yaml")
	if err != nil || got != path {
		t.Errorf("ResolveConfigPath = %q, %v", got, err)
	}
}

func TestResolveConfigPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfig, "")

	if _, err := ResolveConfigPath("relayd", "missing.yaml"); !errors.Is(err, ErrNoConfig) {
		t.Fatalf("expected ErrNoConfig, got %v", err)
	}

	dir := filepath.Join(home, ".scenerelay", "relayd")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "relayd.yaml")
	if err := os.WriteFile(want, []byte("listen: localhost:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveConfigPath("relayd", "relayd.yaml")
	if err != nil || got != want {
		t.Errorf("ResolveConfigPath = %q, %v", got, err)
	}
}

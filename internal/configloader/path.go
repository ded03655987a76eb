package configloader

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfig overrides every config lookup with an explicit file path.
const EnvConfig = "SCENERELAY_CONFIG"

// ResolveConfigPath returns the config path for a binary and file name.
// It checks, in order:
// 1. $SCENERELAY_CONFIG if set
// 2. ~/.scenerelay/<subsystem>/<file>
// 3. /etc/scenerelay/<file>
//
// ErrNoConfig is returned when none exist; callers fall back to defaults.
func ResolveConfigPath(subsystem, file string) (string, error) {
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	for _, dir := range searchDirs(subsystem) {
		candidate := filepath.Join(dir, file)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %s/%s", ErrNoConfig, subsystem, file)
}

func searchDirs(subsystem string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".scenerelay", subsystem))
	}
	return append(dirs, "/etc/scenerelay")
}

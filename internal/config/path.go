// Package config loads the feeledger configuration from files, the environment and flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ and $VAR references in path. The home
// directory is left unexpanded when it cannot be determined.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

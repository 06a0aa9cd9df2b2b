package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GetGlobalConfigDir returns the path to the global configuration directory
// (~/.intakewing). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".intakewing"), nil
}

// GetDataBasePath returns the directory holding the item store and audit
// log. Resolution order (first match wins):
// 1. Explicit config via "project.dataDir" (Viper/env/flag)
// 2. Local project directory: .intakewing (if exists)
// 3. XDG_DATA_HOME/intakewing (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.intakewing
func GetDataBasePath() string {
	if path := viper.GetString("project.dataDir"); path != "" {
		return path
	}

	local := ".intakewing"
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "intakewing")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./" + DefaultDataDir
	}
	return dir
}

package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// starterConfig is the commented configuration written by `intakewing
// init`. Values mirror the documented defaults so a fresh file is a
// working file.
const starterConfig = `# IntakeWing Configuration
version: "1"

project:
  rootDir: .intakewing
  dataDir: .intakewing/data
  auditLog: audit.log

data:
  backend: file          # file | sqlite
  file: intake.json
  format: json           # json | yaml | toml

classify:
  confidenceThreshold: 0.4

batch:
  dailySpec: "0 7 * * *"
  weeklySpec: "0 8 * * 1"
  monthlySpec: "0 9 1 * *"
  staleAfterDays: 7

feedback:
  minEvents: 5
  maxStepPct: 0.05
  minFactorPct: 0.5
  maxFactorPct: 1.5

metrics:
  overloadAlertAt: 70
  debtAlertAt: 10
  debtAfterHours: 48

telemetry:
  enabled: false
`

// WriteStarterConfig writes the starter configuration file and creates the
// data directory. It refuses to overwrite an existing config. The
// filesystem is injected so tests can run against afero.NewMemMapFs.
func WriteStarterConfig(fs afero.Fs, rootDir string) (string, error) {
	if err := fs.MkdirAll(rootDir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", rootDir, err)
	}
	if err := fs.MkdirAll(filepath.Join(rootDir, DefaultDataDir), 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	configFile := filepath.Join(rootDir, ".intakewing.yaml")
	exists, err := afero.Exists(fs, configFile)
	if err != nil {
		return "", fmt.Errorf("check config file: %w", err)
	}
	if exists {
		return "", fmt.Errorf("config file %s already exists", configFile)
	}

	if err := afero.WriteFile(fs, configFile, []byte(starterConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return configFile, nil
}

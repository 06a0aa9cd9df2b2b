// Package config provides centralized configuration constants and helpers
// for IntakeWing. All default values should be defined here to ensure a
// single source of truth.
package config

// Storage backend constants
const (
	// BackendFile is the document-file backend (json/yaml/toml).
	BackendFile = "file"

	// BackendSQLite is the embedded SQLite backend.
	BackendSQLite = "sqlite"

	// DefaultBackend is the backend used when none is configured.
	DefaultBackend = BackendFile
)

// Data defaults
const (
	// DefaultDataDir is the data directory inside the project root.
	DefaultDataDir = "data"

	// DefaultDataFile is the file-backend document name.
	DefaultDataFile = "intake.json"

	// DefaultDataFormat is the file-backend serialization format.
	DefaultDataFormat = "json"

	// DefaultDBFile is the sqlite-backend database name.
	DefaultDBFile = "intake.db"
)

// Pipeline defaults
const (
	// DefaultConfidenceThreshold is the classifier's per-dimension floor.
	DefaultConfidenceThreshold = 0.4

	// DefaultStaleAfterDays is when tier-4 items become weekly-eligible.
	DefaultStaleAfterDays = 7

	// DefaultMinOverrideEvents gates the adaptive weight loop.
	DefaultMinOverrideEvents = 5

	// DefaultMaxStepPct caps a weight's per-cycle change.
	DefaultMaxStepPct = 0.05

	// DefaultOverloadAlertAt is the overload-risk alert threshold.
	DefaultOverloadAlertAt = 70

	// DefaultDebtAlertAt is the information-debt alert threshold.
	DefaultDebtAlertAt = 10

	// DefaultDebtAfterHours is the staleness bound for information debt.
	DefaultDebtAfterHours = 48
)

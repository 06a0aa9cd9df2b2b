/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Project   ProjectConfig   `mapstructure:"project" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Classify  ClassifyConfig  `mapstructure:"classify"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ProjectConfig holds project-related settings
type ProjectConfig struct {
	RootDir  string `mapstructure:"rootDir" validate:"required"`
	DataDir  string `mapstructure:"dataDir" validate:"required"`
	AuditLog string `mapstructure:"auditLog" validate:"required"`
	WatchDir string `mapstructure:"watchDir"`
}

// DataConfig holds data storage configuration
type DataConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	File    string `mapstructure:"file" validate:"required"`
	Format  string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}

// ClassifyConfig holds classifier tuning.
type ClassifyConfig struct {
	// ConfidenceThreshold is the per-dimension floor below which the
	// classification falls back to its lowest-urgency value.
	ConfidenceThreshold float64 `mapstructure:"confidenceThreshold" validate:"omitempty,min=0,max=1"`
}

// BatchConfig holds the cron expressions for review cadences.
type BatchConfig struct {
	DailySpec   string `mapstructure:"dailySpec"`
	WeeklySpec  string `mapstructure:"weeklySpec"`
	MonthlySpec string `mapstructure:"monthlySpec"`
	// StaleAfterDays is how old a tier-4 item must be before the weekly
	// pass picks it up.
	StaleAfterDays int `mapstructure:"staleAfterDays" validate:"omitempty,min=1"`
}

// FeedbackConfig bounds the adaptive weight loop.
type FeedbackConfig struct {
	MinEvents  int     `mapstructure:"minEvents" validate:"omitempty,min=1"`
	MaxStepPct float64 `mapstructure:"maxStepPct" validate:"omitempty,min=0,max=1"`
	// MinFactorPct/MaxFactorPct bound each weight relative to its
	// reference value (e.g. 0.5 and 1.5 keep weights within +/-50%).
	MinFactorPct float64 `mapstructure:"minFactorPct" validate:"omitempty,min=0,max=1"`
	MaxFactorPct float64 `mapstructure:"maxFactorPct" validate:"omitempty,min=1"`
}

// MetricsConfig holds alert thresholds.
type MetricsConfig struct {
	OverloadAlertAt int `mapstructure:"overloadAlertAt" validate:"omitempty,min=0,max=100"`
	DebtAlertAt     int `mapstructure:"debtAlertAt" validate:"omitempty,min=0"`
	// DebtAfterHours is the staleness threshold for information debt.
	DebtAfterHours int `mapstructure:"debtAfterHours" validate:"omitempty,min=1"`
}

// TelemetryConfig controls opt-in anonymous usage analytics.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
}

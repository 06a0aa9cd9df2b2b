/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	intakeconfig "github.com/josephgoksu/IntakeWing/internal/config"
	"github.com/josephgoksu/IntakeWing/internal/logger"
	"github.com/josephgoksu/IntakeWing/store"
	"github.com/josephgoksu/IntakeWing/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName = ".intakewing"
	envPrefix  = "INTAKEWING"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	return validate.Struct(config)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; absence is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setConfigDefaults()

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		projectDir := viper.GetString("project.rootDir")
		if projectDir == "" {
			projectDir = ".intakewing"
		}
		if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
			viper.AddConfigPath(projectDir)
			viper.SetConfigName(configName)
		} else {
			home, err := os.UserHomeDir()
			cobra.CheckErr(err)
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigName(configName)
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Error unmarshaling config:", err)
		os.Exit(1)
	}
	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	logger.SetBasePath(GlobalAppConfig.Project.RootDir)
}

// setConfigDefaults registers every default so a bare environment still
// yields a valid configuration.
func setConfigDefaults() {
	viper.SetDefault("project.rootDir", ".intakewing")
	viper.SetDefault("project.dataDir", filepath.Join(".intakewing", intakeconfig.DefaultDataDir))
	viper.SetDefault("project.auditLog", "audit.log")
	viper.SetDefault("data.backend", intakeconfig.DefaultBackend)
	viper.SetDefault("data.file", intakeconfig.DefaultDataFile)
	viper.SetDefault("data.format", intakeconfig.DefaultDataFormat)
	viper.SetDefault("classify.confidenceThreshold", intakeconfig.DefaultConfidenceThreshold)
	viper.SetDefault("batch.staleAfterDays", intakeconfig.DefaultStaleAfterDays)
	viper.SetDefault("feedback.minEvents", intakeconfig.DefaultMinOverrideEvents)
	viper.SetDefault("feedback.maxStepPct", intakeconfig.DefaultMaxStepPct)
	viper.SetDefault("metrics.overloadAlertAt", intakeconfig.DefaultOverloadAlertAt)
	viper.SetDefault("metrics.debtAlertAt", intakeconfig.DefaultDebtAlertAt)
	viper.SetDefault("metrics.debtAfterHours", intakeconfig.DefaultDebtAfterHours)
	viper.SetDefault("telemetry.enabled", false)
}

// GetConfig returns the loaded application configuration.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// GetStore initializes and returns the item store selected by config.
func GetStore() (store.ItemStore, error) {
	config := GetConfig()

	switch config.Data.Backend {
	case intakeconfig.BackendSQLite:
		s := store.NewSQLiteItemStore()
		dbPath := filepath.Join(config.Project.DataDir, intakeconfig.DefaultDBFile)
		if err := s.Initialize(map[string]string{"dbPath": dbPath}); err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store at %s: %w", dbPath, err)
		}
		return s, nil
	default:
		s := store.NewFileItemStore()
		dataFilePath := filepath.Join(config.Project.DataDir, config.Data.File)
		err := s.Initialize(map[string]string{
			"dataFile":       dataFilePath,
			"dataFileFormat": config.Data.Format,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize store at %s: %w", dataFilePath, err)
		}
		return s, nil
	}
}

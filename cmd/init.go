/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	intakeconfig "github.com/josephgoksu/IntakeWing/internal/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize IntakeWing in the current directory",
	Long: `Initialize IntakeWing in the current directory.

This creates the .intakewing directory with:
  • .intakewing.yaml - starter configuration with documented defaults
  • data/            - where the item store lives

Run this in your project root before capturing items.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}

		rootDir := filepath.Join(cwd, ".intakewing")
		configFile, err := intakeconfig.WriteStarterConfig(afero.NewOsFs(), rootDir)
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				fmt.Println("✓ IntakeWing already initialized in this directory")
				return nil
			}
			return err
		}

		fmt.Println("✓ IntakeWing initialized")
		fmt.Printf("  config: %s\n", configFile)
		fmt.Printf("  data:   %s\n", filepath.Join(rootDir, intakeconfig.DefaultDataDir))
		fmt.Println("\nNext: capture your first item with `intakewing capture --title \"...\"`")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

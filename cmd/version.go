/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the IntakeWing version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("IntakeWing %s (%s/%s)\n", GetVersion(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// GetVersion returns the application version string.
func GetVersion() string {
	return version
}

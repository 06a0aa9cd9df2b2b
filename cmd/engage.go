/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/spf13/cobra"
)

// engageCmd represents the engage command
var engageCmd = &cobra.Command{
	Use:   "engage <item-id>",
	Short: "Mark an item as acted on",
	Long: `Engage moves a reflected item into the terminal Engaged stage and
marks it completed. Engaged items never re-enter the pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runEngage,
}

var engageNote string

func init() {
	rootCmd.AddCommand(engageCmd)

	engageCmd.Flags().StringVar(&engageNote, "note", "", "Optional note about the outcome")
}

func runEngage(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	item, err := eng.Engage(cmd.Context(), args[0], engageNote)
	if err != nil {
		return err
	}

	trackUsage("engage", telemetry.Properties{"tier": int(item.Tier)})
	fmt.Printf("Item %s engaged: %s\n", item.ID, item.Title)
	return nil
}

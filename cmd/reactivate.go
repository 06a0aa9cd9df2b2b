/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/spf13/cobra"
)

// reactivateCmd represents the reactivate command
var reactivateCmd = &cobra.Command{
	Use:   "reactivate <item-id>",
	Short: "Send a shelved item back through intake",
	Long: `Reactivate returns a someday/maybe, waiting-for, or stalled in-flight
item to the Captured stage. Engaged and reference items cannot come back.
The item keeps its history but its capture clock restarts, so it is
classified and scored again like fresh intake.`,
	Args: cobra.ExactArgs(1),
	RunE: runReactivate,
}

var reactivateNote string

func init() {
	rootCmd.AddCommand(reactivateCmd)

	reactivateCmd.Flags().StringVar(&reactivateNote, "note", "", "Why the item is coming back")
}

func runReactivate(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	item, err := eng.Reactivate(cmd.Context(), args[0], reactivateNote)
	if err != nil {
		return err
	}

	trackUsage("reactivate", telemetry.Properties{"tier": int(item.Tier)})
	fmt.Printf("Item %s reactivated: stage=%s score=%d tier=%d\n",
		item.ID, item.Stage, item.PriorityScore, item.Tier)
	return nil
}

/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/spf13/cobra"
)

// overrideCmd represents the override command
var overrideCmd = &cobra.Command{
	Use:   "override <item-id>",
	Short: "Manually override an item's tier",
	Long: `Override moves an item to a different tier and records the correction
as a feedback event. The numeric score is left untouched so the weight
adjuster can compare it against the tier you chose.`,
	Args: cobra.ExactArgs(1),
	RunE: runOverride,
}

var (
	overrideTier   int
	overrideReason string
)

func init() {
	rootCmd.AddCommand(overrideCmd)

	overrideCmd.Flags().IntVar(&overrideTier, "tier", 0, "Target tier (1-5)")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Why the assigned tier was wrong")
	_ = overrideCmd.MarkFlagRequired("tier")
}

func runOverride(cmd *cobra.Command, args []string) error {
	if overrideTier < 1 || overrideTier > 5 {
		return fmt.Errorf("tier must be between 1 and 5, got %d", overrideTier)
	}

	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	event, err := eng.Override(cmd.Context(), args[0], models.Tier(overrideTier), overrideReason)
	if err != nil {
		return err
	}

	trackUsage("override", telemetry.Properties{"newTier": overrideTier})
	fmt.Printf("Item %s moved from tier %d to tier %d. Score remains %d.\n",
		event.ItemID, event.OldTier, event.NewTier, event.ScoreAtOverride)
	return nil
}

/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
	"github.com/spf13/cobra"
)

// weightsCmd represents the weights command group
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect and adjust scoring weights",
	Long: `Scoring weights are versioned and immutable. Tier overrides accumulate
as feedback events; once enough have gathered, adjust derives a new
weight version from them and rescoring picks it up.`,
}

// weightsShowCmd prints the active configuration.
var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active weight configuration",
	RunE:  runWeightsShow,
}

// weightsHistoryCmd prints every persisted version.
var weightsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show all weight configuration versions",
	RunE:  runWeightsHistory,
}

// weightsAdjustCmd runs the feedback loop.
var weightsAdjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Derive a new weight version from pending overrides",
	Long: `Adjust consumes pending tier overrides and, when at least the
configured minimum have accumulated, produces a new bounded weight
version. Unprocessed items are rescored against it afterwards.`,
	RunE: runWeightsAdjust,
}

var weightsJSON bool

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsShowCmd)
	weightsCmd.AddCommand(weightsHistoryCmd)
	weightsCmd.AddCommand(weightsAdjustCmd)

	weightsCmd.PersistentFlags().BoolVar(&weightsJSON, "json", false, "Print as JSON")
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	active, err := s.ActiveWeights()
	if err != nil {
		return err
	}

	if weightsJSON {
		return printJSON(active)
	}
	printWeightVersion(active)
	return nil
}

func runWeightsHistory(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	versions, err := s.ListWeights()
	if err != nil {
		return err
	}

	if weightsJSON {
		return printJSON(versions)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tIMPACT\tTIME\tSTAKEHOLDER\tALIGNMENT\tOUTCOME\tCREATED\tNOTE")
	for _, v := range versions {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
			v.Version,
			v.Weights.DecisionImpact,
			v.Weights.TimeSensitivity,
			v.Weights.StakeholderImportance,
			v.Weights.StrategicAlignment,
			v.Weights.OutcomeValue,
			v.CreatedAt.Format("2006-01-02"),
			v.Note)
	}
	return w.Flush()
}

func runWeightsAdjust(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	adjuster := buildAdjuster(s)
	next, err := adjuster.Run(cmd.Context())
	if errors.Is(err, types.ErrNotEnoughOverrides) {
		fmt.Println("Not enough pending overrides yet; weights unchanged.")
		return nil
	}
	if err != nil {
		return err
	}

	rescored, err := eng.Rescore(cmd.Context())
	if err != nil {
		return fmt.Errorf("weights updated to version %d but rescore failed: %w", next.Version, err)
	}

	trackUsage("weights-adjust", telemetry.Properties{"version": next.Version})
	fmt.Printf("New weight configuration version %d; %d item(s) rescored.\n", next.Version, rescored)
	if !weightsJSON {
		printWeightVersion(next)
		return nil
	}
	return printJSON(next)
}

func printWeightVersion(v models.WeightConfiguration) {
	fmt.Printf("Version %d (created %s)\n", v.Version, v.CreatedAt.Format("2006-01-02"))
	if v.Note != "" {
		fmt.Printf("  %s\n", v.Note)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  decision impact\t%.2f\n", v.Weights.DecisionImpact)
	fmt.Fprintf(w, "  time sensitivity\t%.2f\n", v.Weights.TimeSensitivity)
	fmt.Fprintf(w, "  stakeholder importance\t%.2f\n", v.Weights.StakeholderImportance)
	fmt.Fprintf(w, "  strategic alignment\t%.2f\n", v.Weights.StrategicAlignment)
	fmt.Fprintf(w, "  outcome value\t%.2f\n", v.Weights.OutcomeValue)
	_ = w.Flush()
}

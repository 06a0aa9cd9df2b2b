/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/IntakeWing/internal/engine"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items sorted by priority score",
	Long: `List retrieves items filtered by tier, stage, status, or capture date
range, sorted by score descending.`,
	RunE: runList,
}

var (
	listTier   int
	listStage  string
	listStatus string
	listSince  string
	listUntil  string
	listJSON   bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVar(&listTier, "tier", 0, "Filter by tier (1-5)")
	listCmd.Flags().StringVar(&listStage, "stage", "", "Filter by GTD stage")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&listSince, "since", "", "Captured on or after (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Captured on or before (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print items as JSON")
}

// tierStyles colors the tier column by urgency.
var tierStyles = map[models.Tier]lipgloss.Style{
	models.TierCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	models.TierHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	models.TierMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	models.TierLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	models.TierNoise:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

func runList(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	since, err := parseDateFlag(listSince)
	if err != nil {
		return err
	}
	until, err := parseDateFlag(listUntil)
	if err != nil {
		return err
	}

	items, err := eng.Query(cmd.Context(), engine.QueryFilter{
		Tier:   models.Tier(listTier),
		Stage:  models.GTDStage(listStage),
		Status: models.ItemStatus(listStatus),
		Since:  since,
		Until:  until,
	})
	if err != nil {
		return err
	}

	if listJSON {
		return printJSON(items)
	}

	if len(items) == 0 {
		fmt.Println("No items match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTIER\tSTAGE\tSTATUS\tTITLE\tID")
	for _, item := range items {
		tierLabel := fmt.Sprintf("%d %s", item.Tier, item.Tier.Label())
		if style, ok := tierStyles[item.Tier]; ok {
			tierLabel = style.Render(tierLabel)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			item.PriorityScore, tierLabel, item.Stage, item.Status, item.Title, item.ID)
	}
	return w.Flush()
}

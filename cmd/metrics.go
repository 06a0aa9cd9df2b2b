/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/spf13/cobra"
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Compute and show today's intake-health rollup",
	Long: `Metrics computes throughput, backlog size, information debt, overload
risk, and the strategic-time ratio for today, persists the rollup, and
prints any threshold alerts.`,
	RunE: runMetrics,
}

var (
	metricsJSON bool
	metricsDate string
)

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Print the rollup as JSON")
	metricsCmd.Flags().StringVar(&metricsDate, "date", "", "Show a past stored rollup (YYYY-MM-DD) instead of collecting")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if metricsDate != "" {
		if _, err := time.Parse(models.MetricsDateFormat, metricsDate); err != nil {
			return fmt.Errorf("invalid --date %q: %w", metricsDate, err)
		}
		m, err := s.GetMetrics(metricsDate)
		if err != nil {
			return err
		}
		if metricsJSON {
			return printJSON(m)
		}
		printMetrics(m, nil)
		return nil
	}

	collector := buildCollector(s)
	m, alerts, err := collector.Collect(cmd.Context(), time.Now())
	if err != nil {
		return err
	}

	trackUsage("metrics", telemetry.Properties{"overloadRisk": m.OverloadRisk})

	if metricsJSON {
		return printJSON(struct {
			Metrics models.ProcessingMetrics `json:"metrics"`
			Alerts  []models.Alert           `json:"alerts,omitempty"`
		}{m, alerts})
	}
	printMetrics(m, alerts)
	return nil
}

func printMetrics(m models.ProcessingMetrics, alerts []models.Alert) {
	fmt.Printf("Intake health for %s\n", m.Date)
	fmt.Printf("  captured:            %d\n", m.ItemsCaptured)
	fmt.Printf("  processed:           %d\n", m.ItemsProcessed)
	fmt.Printf("  avg processing time: %.0fs\n", m.AvgProcessingSeconds())
	fmt.Printf("  backlog:             %d\n", m.BacklogSize)
	fmt.Printf("  information debt:    %d\n", m.InformationDebt)
	fmt.Printf("  overload risk:       %d/100\n", m.OverloadRisk)
	fmt.Printf("  strategic ratio:     %.0f%%\n", m.StrategicTimeRatio*100)
	for _, a := range alerts {
		fmt.Printf("  ALERT [%s]: %s\n", a.Kind, a.Message)
	}
}

/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/batch"
	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command group
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run or schedule batch review passes",
	Long: `Batch passes group tier 4-5 items into daily, weekly, and monthly
review agendas so low-priority intake never interrupts focused work.`,
}

// batchRunCmd executes a single pass on demand.
var batchRunCmd = &cobra.Command{
	Use:   "run <daily|weekly|monthly>",
	Short: "Execute one review pass now",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchRun,
}

// batchServeCmd keeps the scheduler resident on its cron cadences.
var batchServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler in the foreground",
	Long: `Serve registers the daily, weekly, and monthly passes with their cron
expressions and prints each agenda as it is produced. Stop with Ctrl-C.`,
	RunE: runBatchServe,
}

// batchDisposeCmd records the outcome of a reviewed item.
var batchDisposeCmd = &cobra.Command{
	Use:   "dispose <item-id> <act|delegate|archive>",
	Short: "Record the outcome of a batch-reviewed item",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatchDispose,
}

var batchJSON bool

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchServeCmd)
	batchCmd.AddCommand(batchDisposeCmd)

	batchRunCmd.Flags().BoolVar(&batchJSON, "json", false, "Print the agenda as JSON")
}

func parseCadence(raw string) (batch.Cadence, error) {
	switch batch.Cadence(raw) {
	case batch.CadenceDaily, batch.CadenceWeekly, batch.CadenceMonthly:
		return batch.Cadence(raw), nil
	default:
		return "", fmt.Errorf("unknown cadence %q (expected daily, weekly, or monthly)", raw)
	}
}

func runBatchRun(cmd *cobra.Command, args []string) error {
	cadence, err := parseCadence(args[0])
	if err != nil {
		return err
	}

	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sched := buildScheduler(s, nil)
	agenda, err := sched.Tick(cmd.Context(), cadence, time.Now())
	if err != nil {
		return err
	}

	trackUsage("batch-run", telemetry.Properties{"cadence": string(cadence)})

	if batchJSON {
		return printJSON(agenda)
	}
	printAgenda(agenda)
	return nil
}

func runBatchServe(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sched := buildScheduler(s, printAgenda)
	if err := sched.Start(); err != nil {
		return err
	}
	fmt.Println("Scheduler running. Press Ctrl-C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}

	sched.Stop()
	fmt.Println("Scheduler stopped.")
	return nil
}

func runBatchDispose(cmd *cobra.Command, args []string) error {
	s, err := GetStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sched := buildScheduler(s, nil)
	item, err := sched.Dispose(cmd.Context(), args[0], batch.Disposition(args[1]))
	if err != nil {
		return err
	}

	trackUsage("batch-dispose", telemetry.Properties{"disposition": args[1]})
	fmt.Printf("Item %s disposed (%s): stage=%s status=%s\n", item.ID, args[1], item.Stage, item.Status)
	return nil
}

func printAgenda(agenda batch.Agenda) {
	fmt.Printf("%s review agenda (%s)\n", agenda.Cadence, agenda.RunAt.Format("2006-01-02 15:04"))
	if len(agenda.Entries) == 0 {
		fmt.Println("  nothing to review")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  SCORE\tTIER\tTITLE\tID")
	for _, e := range agenda.Entries {
		fmt.Fprintf(w, "  %d\t%d %s\t%s\t%s\n", e.Score, e.Tier, e.Tier.Label(), e.Title, e.ItemID)
	}
	_ = w.Flush()
	if len(agenda.SkippedID) > 0 {
		fmt.Printf("  skipped %d item(s); they stay eligible for the next pass\n", len(agenda.SkippedID))
	}
}

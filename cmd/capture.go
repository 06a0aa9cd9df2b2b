/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/josephgoksu/IntakeWing/internal/engine"
	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <title>",
	Short: "Capture a new information item",
	Long: `Capture ingests a new item, classifies it, scores it, and assigns its
priority tier. The item enters the workflow in stage captured and is
advanced to clarified immediately.

Examples:
  intakewing capture "CFO needs budget sign-off" --source email --type decision --due 2026-09-01
  intakewing capture --watch ./inbox --source drop`,
	Args: cobra.ArbitraryArgs,
	RunE: runCapture,
}

var (
	captureSource   string
	captureRef      string
	captureType     string
	captureContent  string
	captureDue      string
	captureKeywords []string
	captureRole     string
	captureWatch    string
	captureJSON     bool
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVar(&captureSource, "source", "manual", "Originating source identifier")
	captureCmd.Flags().StringVar(&captureRef, "ref", "", "Source-native reference id")
	captureCmd.Flags().StringVar(&captureType, "type", "task", "Item type (email, meeting, task, decision, strategic-initiative, question)")
	captureCmd.Flags().StringVar(&captureContent, "content", "", "Item body/content")
	captureCmd.Flags().StringVar(&captureDue, "due", "", "Due date (YYYY-MM-DD)")
	captureCmd.Flags().StringSliceVar(&captureKeywords, "keyword", nil, "Explicit classification keywords (repeatable)")
	captureCmd.Flags().StringVar(&captureRole, "sender-role", "", "Sender role hint (executive, client, direct-report, team, vendor, external)")
	captureCmd.Flags().StringVar(&captureWatch, "watch", "", "Watch a directory and ingest dropped JSON payload files")
	captureCmd.Flags().BoolVar(&captureJSON, "json", false, "Print the captured item as JSON")
}

func runCapture(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if captureWatch != "" {
		return watchAndCapture(cmd.Context(), eng, captureWatch)
	}

	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("a title is required (or use --watch)")
	}

	payload := engine.IngestPayload{
		Source:     captureSource,
		SourceRef:  captureRef,
		Type:       models.ItemType(captureType),
		Title:      title,
		Content:    captureContent,
		Keywords:   captureKeywords,
		SenderRole: captureRole,
	}
	if captureDue != "" {
		due, err := parseDateFlag(captureDue)
		if err != nil {
			return err
		}
		payload.DueAt = &due
	}

	item, err := eng.Capture(cmd.Context(), payload)
	if err != nil {
		return err
	}

	trackUsage("capture", telemetry.Properties{"type": string(item.Type)})

	if captureJSON {
		return printJSON(item)
	}
	fmt.Printf("Captured %s\n", item.ID)
	fmt.Printf("  score %d, tier %d (%s), stage %s\n", item.PriorityScore, item.Tier, item.Tier.Label(), item.Stage)
	if item.NeedsReview {
		fmt.Println("  flagged for review: low classification confidence")
	}
	return nil
}

// watchAndCapture ingests JSON payload files dropped into dir until
// interrupted. Each file holds one engine.IngestPayload; handled files are
// removed so a restart does not double-ingest.
func watchAndCapture(ctx context.Context, eng *engine.Engine, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Watching %s for payload files (Ctrl-C to stop)\n", dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigCh:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			// Writers may still be flushing; a short delay avoids
			// ingesting a half-written file.
			time.Sleep(50 * time.Millisecond)
			if err := ingestPayloadFile(ctx, eng, event.Name); err != nil {
				fmt.Fprintf(os.Stderr, "skip %s: %v\n", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func ingestPayloadFile(ctx context.Context, eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var payload engine.IngestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	item, err := eng.Capture(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Captured %s from %s (tier %d)\n", item.ID, filepath.Base(path), item.Tier)
	return os.Remove(path)
}

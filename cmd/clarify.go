/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/josephgoksu/IntakeWing/internal/workflow"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// clarifyCmd represents the clarify command
var clarifyCmd = &cobra.Command{
	Use:   "clarify [item-id]",
	Short: "Route a clarified item onward",
	Long: `Clarify routes an item out of the clarified stage. Actionable items move
to organized; tier 1-2 items surface immediately while tier 3-5 items wait
for their batch review window. Non-actionable items need an explicit
disposition (reference, someday, waiting) - it is prompted for when not
given as a flag, never inferred.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClarify,
}

var clarifyDisposition string

func init() {
	rootCmd.AddCommand(clarifyCmd)
	clarifyCmd.Flags().StringVar(&clarifyDisposition, "disposition", "", "Disposition for non-actionable items (reference, someday, waiting)")
}

func runClarify(cmd *cobra.Command, args []string) error {
	eng, s, err := buildEngine()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		id, err = selectClarifiedItem(s)
		if err != nil {
			return err
		}
	}

	disposition := workflow.Disposition(clarifyDisposition)

	item, err := eng.Clarify(cmd.Context(), id, disposition)
	if errors.Is(err, types.ErrMissingDisposition) {
		// The item is non-actionable and no flag was given; ask.
		disposition, err = promptDisposition()
		if err != nil {
			return err
		}
		item, err = eng.Clarify(cmd.Context(), id, disposition)
	}
	if err != nil {
		return err
	}

	trackUsage("clarify", nil)
	fmt.Printf("Item %s is now %s", item.ID, item.Stage)
	if item.Stage == models.StageOrganized {
		if item.Tier <= models.TierHigh {
			fmt.Print(" (surfaced for same-day engagement)")
		} else {
			fmt.Print(" (queued for batch review)")
		}
	}
	fmt.Println()
	return nil
}

func selectClarifiedItem(s interface {
	ListItems(func(models.InformationItem) bool, func([]models.InformationItem) []models.InformationItem) ([]models.InformationItem, error)
}) (string, error) {
	items, err := s.ListItems(func(it models.InformationItem) bool {
		return it.Stage == models.StageClarified
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list clarified items: %w", err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no items awaiting clarification")
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   `> {{ .Title | cyan }} (tier {{ .Tier }}, score {{ .PriorityScore }})`,
		Inactive: `  {{ .Title | faint }} (tier {{ .Tier }}, score {{ .PriorityScore }})`,
		Selected: `{{ "✔" | green }} {{ .Title | faint }}`,
	}
	prompt := promptui.Select{
		Label:     "Select an item to clarify",
		Items:     items,
		Templates: templates,
		Size:      10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection aborted: %w", err)
	}
	return items[idx].ID, nil
}

func promptDisposition() (workflow.Disposition, error) {
	prompt := promptui.Select{
		Label: "Item is not actionable - choose a disposition",
		Items: []string{
			string(workflow.DispositionReference),
			string(workflow.DispositionSomeday),
			string(workflow.DispositionWaiting),
		},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("disposition prompt aborted: %w", err)
	}
	return workflow.Disposition(choice), nil
}

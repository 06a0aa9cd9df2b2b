// Package workflow enforces the GTD stage graph:
//
//	Captured -> Clarified -> Organized -> Reflected -> Engaged
//
// with side exits from Clarified to Reference, SomedayMaybe, and
// WaitingFor, and a single backward edge: explicit reactivation to
// Captured from any stage except Engaged and Reference. Transitions are
// monotonic forward along the graph; no stage may be skipped.
package workflow

import (
	"fmt"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
)

// Disposition routes a non-actionable item out of Clarified. It is always
// explicit input; absence of a disposition holds the item in Clarified.
type Disposition string

const (
	DispositionReference Disposition = "reference"
	DispositionSomeday   Disposition = "someday"
	DispositionWaiting   Disposition = "waiting"
)

// forward edges of the stage graph.
var transitions = map[models.GTDStage][]models.GTDStage{
	models.StageCaptured:  {models.StageClarified},
	models.StageClarified: {models.StageOrganized, models.StageReference, models.StageSomedayMaybe, models.StageWaitingFor},
	models.StageOrganized: {models.StageReflected},
	models.StageReflected: {models.StageEngaged},
}

// CanTransition reports whether from -> to is a legal forward edge.
func CanTransition(from, to models.GTDStage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanReactivate reports whether the stage may be force-reset to Captured.
// Engaged items have finished their cycle and Reference items are archived
// knowledge; everything else may come back.
func CanReactivate(from models.GTDStage) bool {
	return from != models.StageEngaged && from != models.StageReference
}

// Advance moves the item to the target stage after validating the edge.
// Rejected transitions return a *types.WorkflowError wrapping
// types.ErrInvalidTransition and leave the item untouched.
func Advance(item *models.InformationItem, to models.GTDStage) error {
	if !CanTransition(item.Stage, to) {
		return &types.WorkflowError{
			ItemID: item.ID,
			From:   string(item.Stage),
			To:     string(to),
			Err:    types.ErrInvalidTransition,
		}
	}
	item.Stage = to
	return nil
}

// Clarify routes an item out of Clarified based on its actionable
// determination. Actionable items go to Organized regardless of tier; the
// caller decides whether they are surfaced immediately (tier 1-2) or
// queued for batch review (tier 3-5). Non-actionable items require an
// explicit disposition; without one the item stays in Clarified and is
// flagged for review.
func Clarify(item *models.InformationItem, disposition Disposition) error {
	if item.Stage != models.StageClarified {
		return &types.WorkflowError{
			ItemID: item.ID,
			From:   string(item.Stage),
			To:     string(models.StageOrganized),
			Err:    types.ErrInvalidTransition,
		}
	}

	if item.Actionable {
		return Advance(item, models.StageOrganized)
	}

	switch disposition {
	case DispositionReference:
		return Advance(item, models.StageReference)
	case DispositionSomeday:
		err := Advance(item, models.StageSomedayMaybe)
		if err == nil {
			item.Status = models.StatusDeferred
		}
		return err
	case DispositionWaiting:
		err := Advance(item, models.StageWaitingFor)
		if err == nil {
			item.Status = models.StatusDeferred
			item.ContextTags = appendTagIfMissing(item.ContextTags, "@waiting-for")
		}
		return err
	case "":
		item.NeedsReview = true
		return fmt.Errorf("item %s: %w", item.ID, types.ErrMissingDisposition)
	default:
		return fmt.Errorf("unknown disposition %q", disposition)
	}
}

// Reactivate force-resets the item to Captured, the only permitted
// backward edge. The reactivation is recorded as an audit note and the
// capture clock restarts so the age-in-debt counter resets.
func Reactivate(item *models.InformationItem, note string) error {
	if !CanReactivate(item.Stage) {
		return &types.WorkflowError{
			ItemID: item.ID,
			From:   string(item.Stage),
			To:     string(models.StageCaptured),
			Err:    types.ErrInvalidTransition,
		}
	}
	item.AddNote(fmt.Sprintf("reactivated from %s: %s", item.Stage, note))
	item.Stage = models.StageCaptured
	item.Status = models.StatusPending
	item.BatchReviewAt = nil
	item.ProcessedAt = nil
	// Restarting the capture clock resets the age-in-debt counter.
	item.CapturedAt = time.Now().UTC()
	return nil
}

// Engage completes the item's cycle: Reflected -> Engaged, status
// completed, processed timestamp set by the caller.
func Engage(item *models.InformationItem) error {
	if err := Advance(item, models.StageEngaged); err != nil {
		return err
	}
	item.Status = models.StatusCompleted
	return nil
}

func appendTagIfMissing(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

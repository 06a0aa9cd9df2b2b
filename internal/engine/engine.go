// Package engine orchestrates the intake pipeline: capture, classify,
// score, tier, and the GTD stage transitions. It is the single owner of
// per-item compute locking, so classification and scoring never race on
// the same item while distinct items process concurrently.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/classify"
	"github.com/josephgoksu/IntakeWing/internal/logger"
	"github.com/josephgoksu/IntakeWing/internal/score"
	"github.com/josephgoksu/IntakeWing/internal/workflow"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/store"
	"github.com/josephgoksu/IntakeWing/types"
)

// Engine wires the store, the classifier strategy, and the workflow rules
// into the operations the CLI exposes.
type Engine struct {
	store      store.ItemStore
	classifier classify.Classifier

	// locks serializes classification/score writes per item.
	locks sync.Map // item id -> *sync.Mutex
}

// New creates an engine over the given store and classifier.
func New(s store.ItemStore, c classify.Classifier) *Engine {
	return &Engine{store: s, classifier: c}
}

func (e *Engine) lockItem(id string) func() {
	muAny, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// IngestPayload is the minimal external input for a new item. Validation
// rejects it synchronously before anything is stored.
type IngestPayload struct {
	Source        string          `json:"source" validate:"required"`
	SourceRef     string          `json:"sourceRef,omitempty"`
	Type          models.ItemType `json:"type" validate:"required,oneof=email meeting task decision strategic-initiative question"`
	Title         string          `json:"title" validate:"required,min=1,max=255"`
	Content       string          `json:"content,omitempty"`
	CapturedAt    time.Time       `json:"capturedAt,omitempty"`
	Keywords      []string        `json:"keywords,omitempty"`
	SenderRole    string          `json:"senderRole,omitempty"`
	DueAt         *time.Time      `json:"dueAt,omitempty"`
	ProjectID     *string         `json:"projectId,omitempty" validate:"omitempty,uuid4"`
	InitiativeIDs []string        `json:"initiativeIds,omitempty"`
}

// Capture validates the payload, stores the item in stage Captured with a
// store-assigned id, and immediately runs classification and scoring to
// bring it to Clarified. The returned item reflects the clarified state.
func (e *Engine) Capture(ctx context.Context, payload IngestPayload) (models.InformationItem, error) {
	if err := models.ValidateStruct(payload); err != nil {
		return models.InformationItem{}, fmt.Errorf("%w: ingest payload: %v", types.ErrValidation, err)
	}

	item := models.InformationItem{
		Source:        payload.Source,
		SourceRef:     payload.SourceRef,
		Type:          payload.Type,
		Title:         payload.Title,
		Content:       payload.Content,
		CapturedAt:    payload.CapturedAt,
		DueAt:         payload.DueAt,
		ProjectID:     payload.ProjectID,
		InitiativeIDs: payload.InitiativeIDs,
		Stage:         models.StageCaptured,
		Status:        models.StatusPending,
	}

	created, err := e.store.CreateItem(item)
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("store new item: %w", err)
	}

	processed, err := e.Process(ctx, created.ID, payload.Keywords, payload.SenderRole)
	if err != nil {
		// The item is captured; classification can be retried. Surface the
		// captured state rather than failing the ingest.
		logger.Audit("capture %s: classification deferred: %v", created.ID, err)
		return created, nil
	}
	return processed, nil
}

// Process runs the classifier and scorer on an item and advances it from
// Captured to Clarified. It is idempotent: with unchanged inputs and an
// unchanged active weight version, re-running does not alter the stored
// score or tier. Concurrent calls for the same item serialize on the
// per-item lock.
func (e *Engine) Process(ctx context.Context, id string, keywords []string, senderRole string) (models.InformationItem, error) {
	unlock := e.lockItem(id)
	defer unlock()

	item, err := e.store.GetItem(id)
	if err != nil {
		return models.InformationItem{}, err
	}

	result, err := e.classifier.Classify(ctx, classify.Signals{
		Title:      item.Title,
		Content:    item.Content,
		Source:     item.Source,
		Type:       item.Type,
		Keywords:   keywords,
		SenderRole: senderRole,
		DueAt:      item.DueAt,
		Now:        item.CapturedAt,
	})
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("classify item %s: %w", id, err)
	}

	weights, err := e.store.ActiveWeights()
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("load active weights: %w", err)
	}

	s := score.Score(score.Input{
		Classification: result.Classification,
		DueAt:          item.DueAt,
		Initiatives:    len(item.InitiativeIDs),
		Now:            item.CapturedAt,
	}, weights.Weights)

	return e.store.UpdateItem(id, func(it *models.InformationItem) error {
		it.Classification = result.Classification
		it.NeedsReview = result.NeedsReview
		it.Actionable = result.Actionable
		if it.NextAction == "" {
			it.NextAction = result.NextAction
		}
		it.ContextTags = mergeTags(it.ContextTags, result.ContextTags)
		it.PriorityScore = s
		it.Tier = score.TierFor(s)
		it.ScoredWith = weights.Version
		if it.Stage == models.StageCaptured {
			return workflow.Advance(it, models.StageClarified)
		}
		return nil
	})
}

// Clarify routes a clarified item onward. Actionable items move to
// Organized; tier 1-2 items are surfaced immediately while tier 3-5 wait
// for their batch window. Non-actionable items need an explicit
// disposition or they stay put with needs-review set.
func (e *Engine) Clarify(ctx context.Context, id string, disposition workflow.Disposition) (models.InformationItem, error) {
	if err := ctx.Err(); err != nil {
		return models.InformationItem{}, err
	}
	unlock := e.lockItem(id)
	defer unlock()

	item, err := e.store.UpdateItem(id, func(it *models.InformationItem) error {
		return workflow.Clarify(it, disposition)
	})
	if err != nil {
		if errors.Is(err, types.ErrMissingDisposition) {
			// Persist the review flag; the item legitimately stays in
			// Clarified until a human decides.
			if _, flagErr := e.store.UpdateItem(id, func(it *models.InformationItem) error {
				it.NeedsReview = true
				return nil
			}); flagErr != nil {
				logger.Audit("clarify %s: failed to flag for review: %v", id, flagErr)
			}
		}
		var wfErr *types.WorkflowError
		if errors.As(err, &wfErr) {
			logger.Audit("workflow error: %v", wfErr)
		}
		return models.InformationItem{}, err
	}
	return item, nil
}

// Override applies a manual tier change, recording the immutable
// OverrideEvent that explains it. The underlying score is left unchanged
// for audit purposes. Concurrent overrides are last-write-wins on the tier
// field; every event stays in the log.
func (e *Engine) Override(ctx context.Context, id string, newTier models.Tier, reason string) (models.OverrideEvent, error) {
	if err := ctx.Err(); err != nil {
		return models.OverrideEvent{}, err
	}
	if newTier < models.TierCritical || newTier > models.TierNoise {
		return models.OverrideEvent{}, fmt.Errorf("%w: tier must be 1-5, got %d", types.ErrValidation, newTier)
	}

	item, err := e.store.GetItem(id)
	if err != nil {
		return models.OverrideEvent{}, err
	}

	ev := models.OverrideEvent{
		ItemID:          id,
		OldTier:         item.Tier,
		NewTier:         newTier,
		Reason:          reason,
		ScoreAtOverride: item.PriorityScore,
	}
	ev, err = e.store.AppendOverride(ev)
	if err != nil {
		return models.OverrideEvent{}, fmt.Errorf("record override event: %w", err)
	}

	if _, err := e.store.UpdateItem(id, func(it *models.InformationItem) error {
		it.Tier = newTier
		return nil
	}); err != nil {
		return models.OverrideEvent{}, fmt.Errorf("apply tier override: %w", err)
	}

	logger.Audit("override %s: tier %d -> %d (%s)", id, ev.OldTier, ev.NewTier, reason)
	return ev, nil
}

// Rescore recomputes scores and tiers for all non-terminal items under the
// active weight configuration. Tier changes caused by re-scoring are not
// override events.
func (e *Engine) Rescore(ctx context.Context) (int, error) {
	weights, err := e.store.ActiveWeights()
	if err != nil {
		return 0, fmt.Errorf("load active weights: %w", err)
	}

	items, err := e.store.ListItems(func(it models.InformationItem) bool {
		return it.Stage != models.StageEngaged && it.Stage != models.StageReference
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("list items for rescore: %w", err)
	}

	changed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if item.ScoredWith == weights.Version {
			continue
		}
		unlock := e.lockItem(item.ID)
		// Score from the item as it is under the lock, not the listing
		// snapshot: a concurrent Process may have refreshed the
		// classification since the list was taken.
		touched := false
		_, err := e.store.UpdateItem(item.ID, func(it *models.InformationItem) error {
			if it.ScoredWith == weights.Version {
				return nil
			}
			newScore := score.Score(score.Input{
				Classification: it.Classification,
				DueAt:          it.DueAt,
				Initiatives:    len(it.InitiativeIDs),
				Now:            it.CapturedAt,
			}, weights.Weights)
			it.PriorityScore = newScore
			it.Tier = score.TierFor(newScore)
			it.ScoredWith = weights.Version
			touched = true
			return nil
		})
		unlock()
		if err != nil {
			return changed, fmt.Errorf("rescore item %s: %w", item.ID, err)
		}
		if touched {
			changed++
		}
	}
	return changed, nil
}

// Reactivate force-resets an item to Captured, the single permitted
// backward edge, then reprocesses it through classification.
func (e *Engine) Reactivate(ctx context.Context, id, note string) (models.InformationItem, error) {
	unlock := e.lockItem(id)
	_, err := e.store.UpdateItem(id, func(it *models.InformationItem) error {
		return workflow.Reactivate(it, note)
	})
	unlock()
	if err != nil {
		var wfErr *types.WorkflowError
		if errors.As(err, &wfErr) {
			logger.Audit("workflow error: %v", wfErr)
		}
		return models.InformationItem{}, err
	}
	logger.Audit("reactivate %s: %s", id, note)
	return e.Process(ctx, id, nil, "")
}

// Engage completes an item's cycle: Reflected -> Engaged with status
// completed and the processed timestamp set.
func (e *Engine) Engage(ctx context.Context, id, note string) (models.InformationItem, error) {
	if err := ctx.Err(); err != nil {
		return models.InformationItem{}, err
	}
	unlock := e.lockItem(id)
	defer unlock()

	item, err := e.store.UpdateItem(id, func(it *models.InformationItem) error {
		if err := workflow.Engage(it); err != nil {
			return err
		}
		processedAt := time.Now().UTC()
		it.ProcessedAt = &processedAt
		if note != "" {
			it.AddNote(note)
		}
		return nil
	})
	if err != nil {
		var wfErr *types.WorkflowError
		if errors.As(err, &wfErr) {
			logger.Audit("workflow error: %v", wfErr)
		}
		return models.InformationItem{}, err
	}
	return item, nil
}

// QueryFilter selects items for Query. Zero values match everything.
type QueryFilter struct {
	Tier   models.Tier
	Stage  models.GTDStage
	Status models.ItemStatus
	Since  time.Time
	Until  time.Time
}

// Query retrieves items matching the filter, sorted by score descending.
func (e *Engine) Query(ctx context.Context, f QueryFilter) ([]models.InformationItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.store.ListItems(func(it models.InformationItem) bool {
		if f.Tier != 0 && it.Tier != f.Tier {
			return false
		}
		if f.Stage != "" && it.Stage != f.Stage {
			return false
		}
		if f.Status != "" && it.Status != f.Status {
			return false
		}
		if !f.Since.IsZero() && it.CapturedAt.Before(f.Since) {
			return false
		}
		if !f.Until.IsZero() && it.CapturedAt.After(f.Until) {
			return false
		}
		return true
	}, func(items []models.InformationItem) []models.InformationItem {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].PriorityScore > items[j].PriorityScore
		})
		return items
	})
}

func mergeTags(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range extra {
		if !seen[t] {
			existing = append(existing, t)
			seen[t] = true
		}
	}
	return existing
}

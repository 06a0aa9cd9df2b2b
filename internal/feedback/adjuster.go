// Package feedback turns manual tier overrides into bounded adjustments of
// the scoring weights. Every adjustment step is capped and gated behind a
// minimum event count so a single noisy correction cannot swing the scorer;
// this bounding is a correctness requirement of the loop, not a tuning
// choice.
package feedback

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/score"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/store"
	"github.com/josephgoksu/IntakeWing/types"
)

// Options bound the adjustment cycle.
type Options struct {
	// MinEvents is the minimum number of pending override events before
	// any adjustment happens.
	MinEvents int
	// MaxStepPct caps each weight's change per cycle as a fraction of its
	// current value.
	MaxStepPct float64
	// MinFactorPct / MaxFactorPct bound each weight relative to its
	// reference value.
	MinFactorPct float64
	MaxFactorPct float64
}

// DefaultOptions returns the documented defaults: five events minimum, 5%
// step, weights held within half and one-and-a-half times their reference.
func DefaultOptions() Options {
	return Options{
		MinEvents:    5,
		MaxStepPct:   0.05,
		MinFactorPct: 0.5,
		MaxFactorPct: 1.5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinEvents <= 0 {
		o.MinEvents = d.MinEvents
	}
	if o.MaxStepPct <= 0 {
		o.MaxStepPct = d.MaxStepPct
	}
	if o.MinFactorPct <= 0 {
		o.MinFactorPct = d.MinFactorPct
	}
	if o.MaxFactorPct <= 1 {
		o.MaxFactorPct = d.MaxFactorPct
	}
	return o
}

// Adjuster consumes pending override events and produces new weight
// configuration versions.
type Adjuster struct {
	store store.ItemStore
	opts  Options
}

// NewAdjuster creates an adjuster over the given store.
func NewAdjuster(s store.ItemStore, opts Options) *Adjuster {
	return &Adjuster{store: s, opts: opts.withDefaults()}
}

// factor indexes into the weight vector.
type factor int

const (
	factorImpact factor = iota
	factorTime
	factorStakeholder
	factorAlignment
	factorOutcome
	factorCount
)

// Run executes one adjustment cycle. With fewer than MinEvents pending
// events it returns types.ErrNotEnoughOverrides and changes nothing.
// On success it persists a new weight configuration whose note lists the
// consumed events, then marks them consumed. If persisting fails the
// previous version stays active and the events stay pending.
func (a *Adjuster) Run(ctx context.Context) (models.WeightConfiguration, error) {
	active, err := a.store.ActiveWeights()
	if err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("load active weights: %w", err)
	}

	pending, err := a.store.ListOverrides(func(ev models.OverrideEvent) bool {
		return ev.ConsumedBy == 0
	})
	if err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("list pending overrides: %w", err)
	}

	// A crash between AppendWeights and MarkOverridesConsumed leaves the
	// active version's events still pending. Finish the stamping here so
	// they are never counted twice.
	if pending, err = a.reconcile(active, pending); err != nil {
		return models.WeightConfiguration{}, err
	}

	if len(pending) < a.opts.MinEvents {
		return models.WeightConfiguration{}, fmt.Errorf("%w: have %d, need %d", types.ErrNotEnoughOverrides, len(pending), a.opts.MinEvents)
	}

	var direction [factorCount]float64
	eventIDs := make([]string, 0, len(pending))
	for _, ev := range pending {
		if err := ctx.Err(); err != nil {
			return models.WeightConfiguration{}, err
		}
		eventIDs = append(eventIDs, ev.ID)
		target := score.Midpoint(ev.NewTier)
		errSigned := float64(target - ev.ScoreAtOverride)
		if errSigned == 0 {
			continue
		}
		attr := a.attribution(ev, errSigned > 0)
		for f := factor(0); f < factorCount; f++ {
			direction[f] += errSigned * attr[f]
		}
	}

	next := active
	next.Version = active.Version + 1
	next.CreatedAt = time.Now().UTC()
	next.Note = fmt.Sprintf("adjusted from %d overrides: %s", len(pending), strings.Join(eventIDs, ","))

	ref := models.ReferenceWeights()
	weights := []struct {
		f    factor
		cur  *float64
		refW float64
	}{
		{factorImpact, &next.Weights.DecisionImpact, ref.DecisionImpact},
		{factorTime, &next.Weights.TimeSensitivity, ref.TimeSensitivity},
		{factorStakeholder, &next.Weights.StakeholderImportance, ref.StakeholderImportance},
		{factorAlignment, &next.Weights.StrategicAlignment, ref.StrategicAlignment},
		{factorOutcome, &next.Weights.OutcomeValue, ref.OutcomeValue},
	}
	for _, w := range weights {
		dir := direction[w.f]
		if dir == 0 {
			continue
		}
		// Step magnitude scales with the accumulated signal but never
		// exceeds MaxStepPct of the current weight.
		scale := math.Min(1, math.Abs(dir)/(10*float64(len(pending))))
		step := *w.cur * a.opts.MaxStepPct * scale
		if dir < 0 {
			step = -step
		}
		adjusted := *w.cur + step
		lo := w.refW * a.opts.MinFactorPct
		hi := w.refW * a.opts.MaxFactorPct
		if adjusted < lo {
			adjusted = lo
		}
		if adjusted > hi {
			adjusted = hi
		}
		*w.cur = adjusted
	}

	persisted, err := a.store.AppendWeights(next)
	if err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("persist weight version %d: %w", next.Version, err)
	}
	if err := a.store.MarkOverridesConsumed(eventIDs, persisted.Version); err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("mark overrides consumed: %w", err)
	}
	return persisted, nil
}

// reconcile stamps pending events already listed in the active version's
// note and returns the events that are genuinely unconsumed.
func (a *Adjuster) reconcile(active models.WeightConfiguration, pending []models.OverrideEvent) ([]models.OverrideEvent, error) {
	counted := make(map[string]bool)
	for _, id := range consumedIDs(active.Note) {
		counted[id] = true
	}
	if len(counted) == 0 {
		return pending, nil
	}

	var stale []string
	var fresh []models.OverrideEvent
	for _, ev := range pending {
		if counted[ev.ID] {
			stale = append(stale, ev.ID)
		} else {
			fresh = append(fresh, ev)
		}
	}
	if len(stale) > 0 {
		if err := a.store.MarkOverridesConsumed(stale, active.Version); err != nil {
			return nil, fmt.Errorf("reconcile consumed overrides: %w", err)
		}
	}
	return fresh, nil
}

// consumedIDs parses the event IDs out of an adjustment note.
func consumedIDs(note string) []string {
	const marker = " overrides: "
	i := strings.Index(note, marker)
	if i < 0 {
		return nil
	}
	return strings.Split(note[i+len(marker):], ",")
}

// attribution distributes an event's error across factors. For a raise,
// factors with the most headroom below their reference sub-score take the
// largest share; for a lower, factors contributing the most take it. When
// the item cannot be loaded the error is spread uniformly.
func (a *Adjuster) attribution(ev models.OverrideEvent, raising bool) [factorCount]float64 {
	var attr [factorCount]float64
	uniform := func() [factorCount]float64 {
		for f := factor(0); f < factorCount; f++ {
			attr[f] = 1.0 / float64(factorCount)
		}
		return attr
	}

	item, err := a.store.GetItem(ev.ItemID)
	if err != nil {
		return uniform()
	}

	ref := models.ReferenceWeights()
	in := score.Input{
		Classification: item.Classification,
		DueAt:          item.DueAt,
		Initiatives:    len(item.InitiativeIDs),
		Now:            ev.CreatedAt,
	}
	subs := score.SubScores(in)
	refs := [factorCount]float64{
		ref.DecisionImpact, ref.TimeSensitivity, ref.StakeholderImportance, ref.StrategicAlignment, ref.OutcomeValue,
	}

	total := 0.0
	for f := factor(0); f < factorCount; f++ {
		if raising {
			attr[f] = (refs[f] - subs[f]) / refs[f]
		} else {
			attr[f] = subs[f] / refs[f]
		}
		if attr[f] < 0 {
			attr[f] = 0
		}
		total += attr[f]
	}
	if total == 0 {
		return uniform()
	}
	for f := factor(0); f < factorCount; f++ {
		attr[f] /= total
	}
	return attr
}

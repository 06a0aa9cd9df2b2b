// Package batch groups lower-tier items into scheduled review passes.
// Tier 1-2 items never pass through here; they surface immediately. The
// daily pass reviews tier 4, the weekly pass tier 5 plus stale tier 4, and
// the monthly pass revisits the someday/maybe shelf. Cadences are cron
// expressions from configuration, not code.
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/workflow"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/store"
	"github.com/robfig/cron/v3"
)

// Cadence identifies a review pass.
type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Default cron expressions for the three passes.
const (
	DefaultDailySpec   = "0 7 * * *"
	DefaultWeeklySpec  = "0 8 * * 1"
	DefaultMonthlySpec = "0 9 1 * *"
)

// DefaultStaleAfter is how old a tier-4 item must be before the weekly
// pass picks it up.
const DefaultStaleAfter = 7 * 24 * time.Hour

// Disposition is the caller-supplied outcome for a reviewed batch item.
type Disposition string

const (
	DispositionAct      Disposition = "act"
	DispositionDelegate Disposition = "delegate"
	DispositionArchive  Disposition = "archive"
)

// AgendaEntry is one line of a review agenda.
type AgendaEntry struct {
	ItemID string      `json:"itemId"`
	Title  string      `json:"title"`
	Score  int         `json:"score"`
	Tier   models.Tier `json:"tier"`
}

// Agenda is the ordered outcome of a scheduling tick.
type Agenda struct {
	Cadence   Cadence       `json:"cadence"`
	RunAt     time.Time     `json:"runAt"`
	Entries   []AgendaEntry `json:"entries"`
	SkippedID []string      `json:"skippedIds,omitempty"`
}

// Options configures the scheduler.
type Options struct {
	DailySpec   string
	WeeklySpec  string
	MonthlySpec string
	StaleAfter  time.Duration
}

func (o Options) withDefaults() Options {
	if o.DailySpec == "" {
		o.DailySpec = DefaultDailySpec
	}
	if o.WeeklySpec == "" {
		o.WeeklySpec = DefaultWeeklySpec
	}
	if o.MonthlySpec == "" {
		o.MonthlySpec = DefaultMonthlySpec
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	return o
}

// Scheduler runs review passes, either on demand or on its cron schedule.
type Scheduler struct {
	store store.ItemStore
	opts  Options
	cron  *cron.Cron
	// onAgenda receives each produced agenda when running under cron.
	onAgenda func(Agenda)
}

// NewScheduler creates a scheduler over the given store. onAgenda may be
// nil when only on-demand ticks are used.
func NewScheduler(s store.ItemStore, opts Options, onAgenda func(Agenda)) *Scheduler {
	return &Scheduler{
		store:    s,
		opts:     opts.withDefaults(),
		cron:     cron.New(),
		onAgenda: onAgenda,
	}
}

// Start registers the three passes and begins cron execution. A failed
// tick is not retried eagerly; the items stay eligible and the next
// scheduled pass picks them up.
func (s *Scheduler) Start() error {
	passes := map[Cadence]string{
		CadenceDaily:   s.opts.DailySpec,
		CadenceWeekly:  s.opts.WeeklySpec,
		CadenceMonthly: s.opts.MonthlySpec,
	}
	for cadence, spec := range passes {
		c := cadence
		if _, err := s.cron.AddFunc(spec, func() {
			agenda, err := s.Tick(context.Background(), c, time.Now())
			if err != nil {
				return
			}
			if s.onAgenda != nil {
				s.onAgenda(agenda)
			}
		}); err != nil {
			return fmt.Errorf("register %s pass (%q): %w", cadence, spec, err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts cron execution and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Tick executes one review pass: snapshot eligible items, stamp their
// batch-review date, advance organized items into Reflected, and return
// the agenda ordered by score descending. Items that fail to update are
// listed as skipped and remain eligible for the next window.
func (s *Scheduler) Tick(ctx context.Context, cadence Cadence, now time.Time) (Agenda, error) {
	if err := ctx.Err(); err != nil {
		return Agenda{}, err
	}

	snapshot, err := s.store.ListItems(s.eligible(cadence, now), nil)
	if err != nil {
		return Agenda{}, fmt.Errorf("snapshot eligible items for %s pass: %w", cadence, err)
	}
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].PriorityScore > snapshot[j].PriorityScore
	})

	agenda := Agenda{Cadence: cadence, RunAt: now}
	for _, item := range snapshot {
		_, err := s.store.UpdateItem(item.ID, func(it *models.InformationItem) error {
			reviewAt := now
			it.BatchReviewAt = &reviewAt
			if it.Stage == models.StageOrganized {
				return workflow.Advance(it, models.StageReflected)
			}
			return nil
		})
		if err != nil {
			agenda.SkippedID = append(agenda.SkippedID, item.ID)
			continue
		}
		agenda.Entries = append(agenda.Entries, AgendaEntry{
			ItemID: item.ID,
			Title:  item.Title,
			Score:  item.PriorityScore,
			Tier:   item.Tier,
		})
	}
	return agenda, nil
}

// eligible returns the snapshot filter for a cadence.
func (s *Scheduler) eligible(cadence Cadence, now time.Time) func(models.InformationItem) bool {
	switch cadence {
	case CadenceDaily:
		return func(it models.InformationItem) bool {
			return it.Stage == models.StageOrganized && it.Tier == models.TierLow
		}
	case CadenceWeekly:
		return func(it models.InformationItem) bool {
			if it.Stage != models.StageOrganized {
				return false
			}
			if it.Tier == models.TierNoise {
				return true
			}
			return it.Tier == models.TierLow && now.Sub(it.CapturedAt) >= s.opts.StaleAfter
		}
	case CadenceMonthly:
		return func(it models.InformationItem) bool {
			return it.Stage == models.StageSomedayMaybe
		}
	default:
		return func(models.InformationItem) bool { return false }
	}
}

// Dispose records the caller's outcome for a reviewed item. Act and
// archive complete the item's cycle; delegate defers it and tags it as
// waiting on someone else.
func (s *Scheduler) Dispose(ctx context.Context, itemID string, d Disposition) (models.InformationItem, error) {
	if err := ctx.Err(); err != nil {
		return models.InformationItem{}, err
	}
	switch d {
	case DispositionAct, DispositionArchive:
		return s.store.UpdateItem(itemID, func(it *models.InformationItem) error {
			if err := workflow.Engage(it); err != nil {
				return err
			}
			processedAt := time.Now().UTC()
			it.ProcessedAt = &processedAt
			if d == DispositionArchive {
				it.AddNote("archived during batch review")
			}
			return nil
		})
	case DispositionDelegate:
		return s.store.UpdateItem(itemID, func(it *models.InformationItem) error {
			it.Status = models.StatusDeferred
			it.AddNote("delegated during batch review")
			for _, t := range it.ContextTags {
				if t == "@waiting-for" {
					return nil
				}
			}
			it.ContextTags = append(it.ContextTags, "@waiting-for")
			return nil
		})
	default:
		return models.InformationItem{}, fmt.Errorf("unknown disposition %q", d)
	}
}

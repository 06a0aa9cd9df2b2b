package batch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.ItemStore {
	t.Helper()
	s := store.NewFileItemStore()
	err := s.Initialize(map[string]string{
		"dataFile":       filepath.Join(t.TempDir(), "intake.json"),
		"dataFileFormat": "json",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedItem(t *testing.T, s store.ItemStore, stage models.GTDStage, tier models.Tier, score int, capturedAt time.Time) models.InformationItem {
	t.Helper()
	item, err := s.CreateItem(models.InformationItem{
		Source:     "manual",
		Type:       models.TypeTask,
		Title:      "batch subject",
		CapturedAt: capturedAt,
	})
	require.NoError(t, err)
	item, err = s.UpdateItem(item.ID, func(it *models.InformationItem) error {
		it.Stage = stage
		it.Tier = tier
		it.PriorityScore = score
		if stage == models.StageSomedayMaybe {
			it.Status = models.StatusDeferred
		}
		return nil
	})
	require.NoError(t, err)
	return item
}

func TestTick_DailyPassReviewsTier4(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	inScope := seedItem(t, s, models.StageOrganized, models.TierLow, 35, now.Add(-2*time.Hour))
	seedItem(t, s, models.StageOrganized, models.TierNoise, 20, now.Add(-2*time.Hour))
	seedItem(t, s, models.StageOrganized, models.TierHigh, 75, now.Add(-2*time.Hour))
	seedItem(t, s, models.StageClarified, models.TierLow, 35, now.Add(-2*time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	agenda, err := sched.Tick(context.Background(), CadenceDaily, now)
	require.NoError(t, err)

	require.Len(t, agenda.Entries, 1)
	assert.Equal(t, inScope.ID, agenda.Entries[0].ItemID)
	assert.Empty(t, agenda.SkippedID)

	// The reviewed item advanced to Reflected and carries the review stamp.
	got, err := s.GetItem(inScope.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageReflected, got.Stage)
	require.NotNil(t, got.BatchReviewAt)
	assert.WithinDuration(t, now, *got.BatchReviewAt, time.Second)
}

func TestTick_WeeklyPassIncludesStaleTier4(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	noise := seedItem(t, s, models.StageOrganized, models.TierNoise, 12, now.Add(-time.Hour))
	stale := seedItem(t, s, models.StageOrganized, models.TierLow, 38, now.Add(-8*24*time.Hour))
	fresh := seedItem(t, s, models.StageOrganized, models.TierLow, 42, now.Add(-2*24*time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	agenda, err := sched.Tick(context.Background(), CadenceWeekly, now)
	require.NoError(t, err)

	ids := make([]string, 0, len(agenda.Entries))
	for _, e := range agenda.Entries {
		ids = append(ids, e.ItemID)
	}
	assert.ElementsMatch(t, []string{noise.ID, stale.ID}, ids)
	assert.NotContains(t, ids, fresh.ID)
}

func TestTick_MonthlyPassRevisitsSomedayMaybe(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	shelved := seedItem(t, s, models.StageSomedayMaybe, models.TierNoise, 18, now.Add(-40*24*time.Hour))
	seedItem(t, s, models.StageOrganized, models.TierLow, 35, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	agenda, err := sched.Tick(context.Background(), CadenceMonthly, now)
	require.NoError(t, err)

	require.Len(t, agenda.Entries, 1)
	assert.Equal(t, shelved.ID, agenda.Entries[0].ItemID)

	// Someday/maybe items are only stamped, never advanced by the pass.
	got, err := s.GetItem(shelved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageSomedayMaybe, got.Stage)
	require.NotNil(t, got.BatchReviewAt)
}

func TestTick_AgendaOrderedByScoreDescending(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	seedItem(t, s, models.StageOrganized, models.TierLow, 31, now.Add(-time.Hour))
	seedItem(t, s, models.StageOrganized, models.TierLow, 48, now.Add(-time.Hour))
	seedItem(t, s, models.StageOrganized, models.TierLow, 40, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	agenda, err := sched.Tick(context.Background(), CadenceDaily, now)
	require.NoError(t, err)

	require.Len(t, agenda.Entries, 3)
	assert.Equal(t, 48, agenda.Entries[0].Score)
	assert.Equal(t, 40, agenda.Entries[1].Score)
	assert.Equal(t, 31, agenda.Entries[2].Score)
}

func TestTick_ReviewedItemsLeaveEligibility(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	seedItem(t, s, models.StageOrganized, models.TierLow, 35, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	first, err := sched.Tick(context.Background(), CadenceDaily, now)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	// Once advanced to Reflected the item no longer matches the pass.
	second, err := sched.Tick(context.Background(), CadenceDaily, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, second.Entries)
}

func TestDispose_ActCompletesCycle(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	item := seedItem(t, s, models.StageReflected, models.TierLow, 35, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	got, err := sched.Dispose(context.Background(), item.ID, DispositionAct)
	require.NoError(t, err)

	assert.Equal(t, models.StageEngaged, got.Stage)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.ProcessedAt)
}

func TestDispose_ArchiveCompletesWithNote(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	item := seedItem(t, s, models.StageReflected, models.TierNoise, 12, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	got, err := sched.Dispose(context.Background(), item.ID, DispositionArchive)
	require.NoError(t, err)

	assert.Equal(t, models.StageEngaged, got.Stage)
	require.NotEmpty(t, got.Notes)
	assert.Contains(t, got.Notes[len(got.Notes)-1], "archived during batch review")
}

func TestDispose_DelegateDefersAndTags(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	item := seedItem(t, s, models.StageReflected, models.TierLow, 35, now.Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	got, err := sched.Dispose(context.Background(), item.ID, DispositionDelegate)
	require.NoError(t, err)

	// Delegation defers the item without closing its cycle.
	assert.Equal(t, models.StageReflected, got.Stage)
	assert.Equal(t, models.StatusDeferred, got.Status)
	assert.Contains(t, got.ContextTags, "@waiting-for")

	// A second delegation must not duplicate the tag.
	again, err := sched.Dispose(context.Background(), item.ID, DispositionDelegate)
	require.NoError(t, err)
	count := 0
	for _, tag := range again.ContextTags {
		if tag == "@waiting-for" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDispose_UnknownDisposition(t *testing.T) {
	s := newTestStore(t)
	item := seedItem(t, s, models.StageReflected, models.TierLow, 35, time.Now().Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	_, err := sched.Dispose(context.Background(), item.ID, "snooze")
	assert.Error(t, err)
}

func TestDispose_ActRequiresReflected(t *testing.T) {
	s := newTestStore(t)
	item := seedItem(t, s, models.StageOrganized, models.TierLow, 35, time.Now().Add(-time.Hour))

	sched := NewScheduler(s, Options{}, nil)
	_, err := sched.Dispose(context.Background(), item.ID, DispositionAct)
	assert.Error(t, err)
}

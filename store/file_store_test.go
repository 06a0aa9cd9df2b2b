package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
)

func setupTestStore(t *testing.T) *FileItemStore {
	t.Helper()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "intake.json")

	store := NewFileItemStore()
	config := map[string]string{
		"dataFile":       filePath,
		"dataFileFormat": "json",
	}

	err := store.Initialize(config)
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}

	return store
}

func TestFileItemStore_BasicOperations(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	item := models.InformationItem{
		Source: "email",
		Type:   models.TypeTask,
		Title:  "Review quarterly numbers",
	}

	created, err := store.CreateItem(item)
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if created.ID == "" {
		t.Error("Created item should have a store-assigned ID")
	}
	if created.Stage != models.StageCaptured {
		t.Errorf("Stage mismatch: got %q, want %q", created.Stage, models.StageCaptured)
	}
	if created.Status != models.StatusPending {
		t.Errorf("Status mismatch: got %q, want %q", created.Status, models.StatusPending)
	}
	if created.CapturedAt.IsZero() {
		t.Error("CapturedAt should be set on create")
	}

	retrieved, err := store.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if retrieved.Title != created.Title {
		t.Errorf("Title mismatch: got %q, want %q", retrieved.Title, created.Title)
	}

	updated, err := store.UpdateItem(created.ID, func(it *models.InformationItem) error {
		it.PriorityScore = 72
		it.Tier = models.TierHigh
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.PriorityScore != 72 || updated.Tier != models.TierHigh {
		t.Errorf("Update not applied: score=%d tier=%d", updated.PriorityScore, updated.Tier)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("UpdatedAt should move forward on update")
	}
}

func TestFileItemStore_GetMissingItem(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.GetItem("b8f64b1e-0000-4000-8000-000000000000")
	if !errors.Is(err, types.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestFileItemStore_UpdateRejectsInvalidItem(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	created, err := store.CreateItem(models.InformationItem{
		Source: "manual", Type: models.TypeTask, Title: "valid",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	_, err = store.UpdateItem(created.ID, func(it *models.InformationItem) error {
		it.PriorityScore = 250
		return nil
	})
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("expected validation error for out-of-range score, got %v", err)
	}

	// The bad mutation must not have been persisted.
	got, err := store.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.PriorityScore != 0 {
		t.Errorf("rejected update leaked: score=%d", got.PriorityScore)
	}
}

func TestFileItemStore_ListWithFilterAndSort(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	scores := []int{40, 95, 10}
	for _, score := range scores {
		item := models.InformationItem{
			Source: "manual", Type: models.TypeTask, Title: "scored item",
		}
		created, err := store.CreateItem(item)
		if err != nil {
			t.Fatalf("CreateItem failed: %v", err)
		}
		s := score
		if _, err := store.UpdateItem(created.ID, func(it *models.InformationItem) error {
			it.PriorityScore = s
			return nil
		}); err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}
	}

	got, err := store.ListItems(
		func(it models.InformationItem) bool { return it.PriorityScore >= 40 },
		func(items []models.InformationItem) []models.InformationItem {
			for i := 0; i < len(items); i++ {
				for j := i + 1; j < len(items); j++ {
					if items[j].PriorityScore > items[i].PriorityScore {
						items[i], items[j] = items[j], items[i]
					}
				}
			}
			return items
		},
	)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 items after filter, got %d", len(got))
	}
	if got[0].PriorityScore != 95 || got[1].PriorityScore != 40 {
		t.Errorf("sort not applied: %d, %d", got[0].PriorityScore, got[1].PriorityScore)
	}
}

func TestFileItemStore_WeightVersioning(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	// First access seeds the reference configuration as version 1.
	active, err := store.ActiveWeights()
	if err != nil {
		t.Fatalf("ActiveWeights failed: %v", err)
	}
	if active.Version != 1 {
		t.Fatalf("expected seeded version 1, got %d", active.Version)
	}
	if active.Weights != models.ReferenceWeights() {
		t.Errorf("seeded weights should be the reference split, got %+v", active.Weights)
	}

	// A gap in the version sequence is rejected.
	bad := active
	bad.Version = 3
	if _, err := store.AppendWeights(bad); err == nil {
		t.Error("AppendWeights should reject a non-successor version")
	}

	next := active
	next.Version = 2
	next.Weights.TimeSensitivity = 26
	next.CreatedAt = time.Now().UTC()
	if _, err := store.AppendWeights(next); err != nil {
		t.Fatalf("AppendWeights failed: %v", err)
	}

	active, err = store.ActiveWeights()
	if err != nil {
		t.Fatalf("ActiveWeights failed: %v", err)
	}
	if active.Version != 2 {
		t.Errorf("expected active version 2, got %d", active.Version)
	}
	if active.Weights.TimeSensitivity != 26 {
		t.Errorf("expected adjusted weight, got %v", active.Weights.TimeSensitivity)
	}

	all, err := store.ListWeights()
	if err != nil {
		t.Fatalf("ListWeights failed: %v", err)
	}
	if len(all) != 2 || all[0].Version != 1 || all[1].Version != 2 {
		t.Errorf("expected ascending versions 1,2; got %+v", all)
	}
}

func TestFileItemStore_OverrideLifecycle(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	item, err := store.CreateItem(models.InformationItem{
		Source: "manual", Type: models.TypeTask, Title: "override target",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	ev, err := store.AppendOverride(models.OverrideEvent{
		ItemID:          item.ID,
		OldTier:         models.TierLow,
		NewTier:         models.TierHigh,
		Reason:          "board asked for it",
		ScoreAtOverride: 40,
	})
	if err != nil {
		t.Fatalf("AppendOverride failed: %v", err)
	}
	if ev.ID == "" || ev.CreatedAt.IsZero() {
		t.Error("override event should get an ID and timestamp")
	}
	if ev.ConsumedBy != 0 {
		t.Errorf("new event should be pending, got ConsumedBy=%d", ev.ConsumedBy)
	}

	pending, err := store.ListOverrides(func(e models.OverrideEvent) bool { return e.ConsumedBy == 0 })
	if err != nil {
		t.Fatalf("ListOverrides failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(pending))
	}

	if err := store.MarkOverridesConsumed([]string{ev.ID}, 2); err != nil {
		t.Fatalf("MarkOverridesConsumed failed: %v", err)
	}

	pending, err = store.ListOverrides(func(e models.OverrideEvent) bool { return e.ConsumedBy == 0 })
	if err != nil {
		t.Fatalf("ListOverrides failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending events after consumption, got %d", len(pending))
	}
}

func TestFileItemStore_MetricsUpsert(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	m := models.ProcessingMetrics{Date: "2026-08-28", ItemsCaptured: 3, BacklogSize: 3}
	if err := store.UpsertMetrics(m); err != nil {
		t.Fatalf("UpsertMetrics failed: %v", err)
	}

	// Same-day upsert replaces, it does not duplicate.
	m.ItemsProcessed = 2
	if err := store.UpsertMetrics(m); err != nil {
		t.Fatalf("UpsertMetrics (second) failed: %v", err)
	}

	got, err := store.GetMetrics("2026-08-28")
	if err != nil {
		t.Fatalf("GetMetrics failed: %v", err)
	}
	if got.ItemsProcessed != 2 {
		t.Errorf("expected replaced rollup, got %+v", got)
	}

	later := models.ProcessingMetrics{Date: "2026-08-29", ItemsCaptured: 1}
	if err := store.UpsertMetrics(later); err != nil {
		t.Fatalf("UpsertMetrics failed: %v", err)
	}
	latest, err := store.LatestMetrics()
	if err != nil {
		t.Fatalf("LatestMetrics failed: %v", err)
	}
	if latest.Date != "2026-08-29" {
		t.Errorf("expected latest rollup for 2026-08-29, got %s", latest.Date)
	}
}

func TestFileItemStore_ChecksumDetectsTampering(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "intake.json")

	store := NewFileItemStore()
	if err := store.Initialize(map[string]string{"dataFile": filePath, "dataFileFormat": "json"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := store.CreateItem(models.InformationItem{
		Source: "manual", Type: models.TypeTask, Title: "tamper target",
	}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Edit the data file behind the store's back.
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read data file: %v", err)
	}
	tampered := strings.Replace(string(data), "tamper target", "edited offline", 1)
	if err := os.WriteFile(filePath, []byte(tampered), 0o644); err != nil {
		t.Fatalf("write tampered file: %v", err)
	}

	reopened := NewFileItemStore()
	err = reopened.Initialize(map[string]string{"dataFile": filePath, "dataFileFormat": "json"})
	if err == nil {
		t.Fatal("expected checksum mismatch on tampered file")
	}
	if !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("expected checksum mismatch error, got: %v", err)
	}
}

func TestFileItemStore_YAMLRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "intake.yaml")

	store := NewFileItemStore()
	if err := store.Initialize(map[string]string{"dataFile": filePath, "dataFileFormat": "yaml"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	created, err := store.CreateItem(models.InformationItem{
		Source: "manual", Type: models.TypeMeeting, Title: "weekly sync notes",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := NewFileItemStore()
	if err := reopened.Initialize(map[string]string{"dataFile": filePath, "dataFileFormat": "yaml"}); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetItem(created.ID)
	if err != nil {
		t.Fatalf("GetItem after reopen failed: %v", err)
	}
	if got.Title != created.Title {
		t.Errorf("round trip mismatch: got %q, want %q", got.Title, created.Title)
	}
}

func TestFileItemStore_Backup(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if _, err := store.CreateItem(models.InformationItem{
		Source: "manual", Type: models.TypeTask, Title: "backed up item",
	}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "backups", "intake-backup.json")
	if err := store.Backup(dest); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(data), "backed up item") {
		t.Error("backup file should contain the stored item")
	}
}

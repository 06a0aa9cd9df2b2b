package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validItem() InformationItem {
	now := time.Now()
	return InformationItem{
		ID:         uuid.New().String(),
		Source:     "email",
		Type:       TypeTask,
		Title:      "A valid item",
		CapturedAt: now,
		Stage:      StageCaptured,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestInformationItem_ValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*InformationItem)
		wantErr bool
	}{
		{
			name:    "valid item",
			mutate:  func(i *InformationItem) {},
			wantErr: false,
		},
		{
			name:    "missing id",
			mutate:  func(i *InformationItem) { i.ID = "" },
			wantErr: true,
		},
		{
			name:    "non-uuid id",
			mutate:  func(i *InformationItem) { i.ID = "item-1" },
			wantErr: true,
		},
		{
			name:    "empty title",
			mutate:  func(i *InformationItem) { i.Title = "" },
			wantErr: true,
		},
		{
			name:    "title too long",
			mutate:  func(i *InformationItem) { i.Title = strings.Repeat("x", 256) },
			wantErr: true,
		},
		{
			name:    "missing source",
			mutate:  func(i *InformationItem) { i.Source = "" },
			wantErr: true,
		},
		{
			name:    "unknown type",
			mutate:  func(i *InformationItem) { i.Type = "voicemail" },
			wantErr: true,
		},
		{
			name:    "unknown stage",
			mutate:  func(i *InformationItem) { i.Stage = "parked" },
			wantErr: true,
		},
		{
			name:    "unknown status",
			mutate:  func(i *InformationItem) { i.Status = "lost" },
			wantErr: true,
		},
		{
			name:    "score above 100",
			mutate:  func(i *InformationItem) { i.PriorityScore = 101 },
			wantErr: true,
		},
		{
			name:    "negative score",
			mutate:  func(i *InformationItem) { i.PriorityScore = -1 },
			wantErr: true,
		},
		{
			name:    "tier out of range",
			mutate:  func(i *InformationItem) { i.Tier = 6 },
			wantErr: true,
		},
		{
			name:    "valid tier and score",
			mutate:  func(i *InformationItem) { i.Tier = TierCritical; i.PriorityScore = 95 },
			wantErr: false,
		},
		{
			name:    "valid side stage",
			mutate:  func(i *InformationItem) { i.Stage = StageSomedayMaybe; i.Status = StatusDeferred },
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			err := ValidateStruct(item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOverrideEvent_Validation(t *testing.T) {
	valid := OverrideEvent{
		ID:              uuid.New().String(),
		ItemID:          uuid.New().String(),
		OldTier:         TierLow,
		NewTier:         TierHigh,
		ScoreAtOverride: 40,
		CreatedAt:       time.Now(),
	}
	if err := ValidateStruct(valid); err != nil {
		t.Errorf("valid event rejected: %v", err)
	}

	bad := valid
	bad.NewTier = 9
	if err := ValidateStruct(bad); err == nil {
		t.Error("tier 9 should be rejected")
	}
}

func TestOverrideEvent_Raised(t *testing.T) {
	tests := []struct {
		old, new Tier
		want     bool
	}{
		{TierLow, TierHigh, true},
		{TierNoise, TierCritical, true},
		{TierHigh, TierLow, false},
		{TierMedium, TierMedium, false},
	}
	for _, tt := range tests {
		ev := OverrideEvent{OldTier: tt.old, NewTier: tt.new}
		if got := ev.Raised(); got != tt.want {
			t.Errorf("Raised() %d->%d = %v, want %v", tt.old, tt.new, got, tt.want)
		}
	}
}

func TestTier_Label(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierCritical, "Critical"},
		{TierHigh, "High"},
		{TierMedium, "Medium"},
		{TierLow, "Low"},
		{TierNoise, "Noise"},
		{Tier(0), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.tier.Label(); got != tt.want {
			t.Errorf("Tier(%d).Label() = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func TestNewItem(t *testing.T) {
	item := NewItem(uuid.New().String(), "slack", TypeQuestion, "which env is canary?")

	if item.Stage != StageCaptured {
		t.Errorf("new item should start captured, got %s", item.Stage)
	}
	if item.Status != StatusPending {
		t.Errorf("new item should start pending, got %s", item.Status)
	}
	if item.CapturedAt.IsZero() || item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
	if err := ValidateStruct(*item); err != nil {
		t.Errorf("NewItem should produce a valid item: %v", err)
	}
}

func TestAddNote_TimestampsEntries(t *testing.T) {
	item := validItem()
	item.AddNote("first")
	item.AddNote("second")

	if len(item.Notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(item.Notes))
	}
	for _, note := range item.Notes {
		parts := strings.SplitN(note, " ", 2)
		if len(parts) != 2 {
			t.Fatalf("note missing timestamp prefix: %q", note)
		}
		if _, err := time.Parse(time.RFC3339, parts[0]); err != nil {
			t.Errorf("note prefix is not RFC3339: %q", parts[0])
		}
	}
	if !strings.HasSuffix(item.Notes[1], "second") {
		t.Errorf("notes should append in order: %v", item.Notes)
	}
}

func TestInformationItem_JSONFieldNames(t *testing.T) {
	item := validItem()
	item.Stage = StageClarified
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	// The wire names are a durable contract.
	for _, key := range []string{`"gtdStage"`, `"priorityScore"`, `"capturedAt"`, `"classification"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized item missing %s key", key)
		}
	}
}

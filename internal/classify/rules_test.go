package classify

import (
	"context"
	"testing"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifier_KeywordClassification(t *testing.T) {
	c := NewRuleClassifier(0)

	res, err := c.Classify(context.Background(), Signals{
		Title: "Urgent: CFO needs budget sign-off",
		Type:  models.TypeEmail,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TimeUrgent, res.Classification.TimeSensitivity)
	assert.Equal(t, models.ImpactHigh, res.Classification.DecisionImpact)
	assert.Equal(t, models.StakeholderExecutive, res.Classification.StakeholderImportance)
}

func TestRuleClassifier_LowConfidenceFallsBack(t *testing.T) {
	c := NewRuleClassifier(0)

	res, err := c.Classify(context.Background(), Signals{
		Title: "misc thoughts",
		Type:  models.TypeEmail,
	})
	require.NoError(t, err)

	// No keyword matches: every dimension defaults to lowest urgency and
	// the result is flagged for review.
	assert.Equal(t, models.TimeLater, res.Classification.TimeSensitivity)
	assert.Equal(t, models.ImpactNone, res.Classification.DecisionImpact)
	assert.Equal(t, models.StakeholderExternal, res.Classification.StakeholderImportance)
	assert.Equal(t, models.AlignUnrelated, res.Classification.StrategicAlignment)
	assert.Equal(t, models.OutcomeLow, res.Classification.OutcomeValue)
	assert.True(t, res.NeedsReview)
}

func TestRuleClassifier_SenderRoleShortcut(t *testing.T) {
	c := NewRuleClassifier(0)

	res, err := c.Classify(context.Background(), Signals{
		Title:      "quick question",
		Type:       models.TypeQuestion,
		SenderRole: "client",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StakeholderClient, res.Classification.StakeholderImportance)
	assert.Equal(t, 1.0, res.Classification.Confidence[DimStakeholder])
}

func TestRuleClassifier_DueDateOverridesTime(t *testing.T) {
	c := NewRuleClassifier(0)

	tests := []struct {
		name string
		due  time.Duration
		want models.TimeSensitivity
	}{
		{"due in hours", 6 * time.Hour, models.TimeUrgent},
		{"due this week", 3 * 24 * time.Hour, models.TimeSoon},
		{"due next month", 30 * 24 * time.Hour, models.TimeLater},
	}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := now.Add(tt.due)
			res, err := c.Classify(context.Background(), Signals{
				Title: "someday maybe read this report",
				Type:  models.TypeTask,
				DueAt: &due,
				Now:   now,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Classification.TimeSensitivity)
			assert.Equal(t, 1.0, res.Classification.Confidence[DimTimeSensitivity])
		})
	}
}

func TestRuleClassifier_DueDateAnchoredAtReferenceTime(t *testing.T) {
	c := NewRuleClassifier(0)

	// Urgency is measured from the supplied reference time, not the wall
	// clock, so the same signals always classify the same way.
	anchor := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	due := anchor.Add(24*time.Hour + time.Minute)

	sig := Signals{Title: "quarterly filing", Type: models.TypeTask, DueAt: &due, Now: anchor}
	res, err := c.Classify(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, models.TimeSoon, res.Classification.TimeSensitivity)

	// Re-classifying with the same anchor never flips the boundary.
	again, err := c.Classify(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, res.Classification.TimeSensitivity, again.Classification.TimeSensitivity)

	// A later anchor crosses the 24h boundary and escalates.
	sig.Now = anchor.Add(2 * time.Minute)
	res, err = c.Classify(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, models.TimeUrgent, res.Classification.TimeSensitivity)
}

func TestRuleClassifier_TypeBoosts(t *testing.T) {
	c := NewRuleClassifier(0)

	res, err := c.Classify(context.Background(), Signals{
		Title: "pick a cloud provider",
		Type:  models.TypeDecision,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImpactHigh, res.Classification.DecisionImpact)

	res, err = c.Classify(context.Background(), Signals{
		Title: "expand into new market",
		Type:  models.TypeInitiative,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlignCore, res.Classification.StrategicAlignment)
}

func TestRuleClassifier_Actionability(t *testing.T) {
	c := NewRuleClassifier(0)

	tests := []struct {
		name       string
		sig        Signals
		actionable bool
		prefix     string
	}{
		{"task", Signals{Title: "file expenses", Type: models.TypeTask}, true, "do: "},
		{"decision", Signals{Title: "vendor choice", Type: models.TypeDecision}, true, "decide: "},
		{"question", Signals{Title: "which region", Type: models.TypeQuestion}, true, "answer: "},
		{"email with request", Signals{Title: "Q3 numbers", Content: "can you send the latest draft", Type: models.TypeEmail}, true, "respond: "},
		{"plain email", Signals{Title: "newsletter roundup", Type: models.TypeEmail}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Classify(context.Background(), tt.sig)
			require.NoError(t, err)
			assert.Equal(t, tt.actionable, res.Actionable)
			if tt.actionable {
				assert.Equal(t, tt.prefix+tt.sig.Title, res.NextAction)
			}
		})
	}
}

func TestRuleClassifier_ContextTags(t *testing.T) {
	c := NewRuleClassifier(0)

	res, err := c.Classify(context.Background(), Signals{
		Title:   "prep meeting agenda, still waiting on legal, schedule a call",
		Type:    models.TypeTask,
		Content: "draft the summary",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"@waiting-for", "@calls", "@meetings", "@focus"}, res.ContextTags)
}

func TestRuleClassifier_ThresholdGatesAssignment(t *testing.T) {
	// "update" matches impact-low at 0.4; a higher threshold rejects it.
	strict := NewRuleClassifier(0.6)
	res, err := strict.Classify(context.Background(), Signals{
		Title: "weekly update",
		Type:  models.TypeEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImpactNone, res.Classification.DecisionImpact)
	assert.True(t, res.NeedsReview)

	lenient := NewRuleClassifier(0.4)
	res, err = lenient.Classify(context.Background(), Signals{
		Title: "weekly update",
		Type:  models.TypeEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImpactLow, res.Classification.DecisionImpact)
}

// Package classify derives the categorical classifications an item needs
// before it can be scored. The Classifier interface is the pluggable
// strategy boundary: the rule-based heuristic in rules.go is the reference
// implementation, and a statistical or learned classifier can be swapped
// in behind the same contract.
package classify

import (
	"context"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
)

// Signals is the already-extracted structured input a classifier consumes.
// Raw parsing of email, calendar, or chat sources happens upstream.
type Signals struct {
	Title      string
	Content    string
	Source     string
	Type       models.ItemType
	Keywords   []string
	SenderRole string
	DueAt      *time.Time
	// Now anchors due-date proximity so classification is a pure function
	// of its inputs. Zero falls back to the wall clock.
	Now time.Time
}

// Dimension names used as confidence map keys.
const (
	DimTimeSensitivity = "timeSensitivity"
	DimDecisionImpact  = "decisionImpact"
	DimStakeholder     = "stakeholderImportance"
	DimAlignment       = "strategicAlignment"
	DimOutcome         = "outcomeValue"
)

// Result is the classifier's full output: the categorical values, the
// per-dimension confidence that produced them, whether a human should
// review the call, and an actionability hint for the clarify step.
type Result struct {
	Classification models.Classification
	NeedsReview    bool
	Actionable     bool
	NextAction     string
	ContextTags    []string
}

// Classifier is the strategy interface. Implementations must be pure with
// respect to the store: no side effects beyond the returned result.
type Classifier interface {
	Classify(ctx context.Context, sig Signals) (Result, error)
}

// lowest-urgency defaults applied when a dimension's confidence falls
// below the configured threshold.
func lowestUrgency() models.Classification {
	return models.Classification{
		TimeSensitivity:       models.TimeLater,
		DecisionImpact:        models.ImpactNone,
		StakeholderImportance: models.StakeholderExternal,
		StrategicAlignment:    models.AlignUnrelated,
		OutcomeValue:          models.OutcomeLow,
	}
}

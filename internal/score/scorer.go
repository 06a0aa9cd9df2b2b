// Package score implements the deterministic priority scorer and the tier
// threshold table. Scoring is a pure function of the classification, the
// item's due date and initiative links, and a weight configuration; it
// reads no other state, so identical inputs always produce the identical
// score.
package score

import (
	"math"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
)

// Reference point tables. Each sub-score is defined against the reference
// weight for its factor (30/25/25/15/5) and rescaled by the ratio of the
// configured weight to the reference weight.
const (
	pointsImpactHigh   = 30
	pointsImpactMedium = 20
	pointsImpactLow    = 10

	pointsTimeUrgent = 25
	pointsTimeDueDay = 25
	pointsTimeDue7d  = 15
	pointsTimeSoon   = 15
	pointsTimeBase   = 5

	pointsPerInitiative = 5
	maxInitiativePoints = 15

	pointsOutcomeHigh   = 5
	pointsOutcomeMedium = 3
	pointsOutcomeLow    = 1
)

// Input carries everything the scorer is allowed to look at.
type Input struct {
	Classification models.Classification
	DueAt          *time.Time
	Initiatives    int
	Now            time.Time
}

// Score computes the composite 0-100 priority score under the given
// weights. Missing or zero-valued classification dimensions map to the
// lowest point value for their dimension, never to an error.
func Score(in Input, w models.Weights) int {
	ref := models.ReferenceWeights()

	total := impactPoints(in.Classification.DecisionImpact) * w.DecisionImpact / ref.DecisionImpact
	total += timePoints(in.Classification.TimeSensitivity, in.DueAt, in.Now) * w.TimeSensitivity / ref.TimeSensitivity
	total += stakeholderPoints(in.Classification.StakeholderImportance) * w.StakeholderImportance / ref.StakeholderImportance
	total += initiativePoints(in.Initiatives) * w.StrategicAlignment / ref.StrategicAlignment
	total += outcomePoints(in.Classification.OutcomeValue) * w.OutcomeValue / ref.OutcomeValue

	return clamp(int(math.Round(total)), 0, 100)
}

// SubScores returns the five sub-scores against the reference weights, in
// factor order: decision impact, time sensitivity, stakeholder importance,
// strategic alignment, outcome value. The feedback loop uses them to
// attribute an override's error to individual factors.
func SubScores(in Input) [5]float64 {
	return [5]float64{
		impactPoints(in.Classification.DecisionImpact),
		timePoints(in.Classification.TimeSensitivity, in.DueAt, in.Now),
		stakeholderPoints(in.Classification.StakeholderImportance),
		initiativePoints(in.Initiatives),
		outcomePoints(in.Classification.OutcomeValue),
	}
}

func impactPoints(d models.DecisionImpact) float64 {
	switch d {
	case models.ImpactHigh:
		return pointsImpactHigh
	case models.ImpactMedium:
		return pointsImpactMedium
	case models.ImpactLow:
		return pointsImpactLow
	default:
		return 0
	}
}

// timePoints prefers a concrete due date over the categorical sensitivity:
// overdue or due within a day scores like urgent, due within a week like
// soon. Without a due date the category alone decides.
func timePoints(ts models.TimeSensitivity, due *time.Time, now time.Time) float64 {
	if ts == models.TimeUrgent {
		return pointsTimeUrgent
	}
	if due != nil {
		until := due.Sub(now)
		switch {
		case until <= 24*time.Hour: // includes overdue
			return pointsTimeDueDay
		case until <= 7*24*time.Hour:
			return pointsTimeDue7d
		default:
			return pointsTimeBase
		}
	}
	if ts == models.TimeSoon {
		return pointsTimeSoon
	}
	return pointsTimeBase
}

func stakeholderPoints(s models.StakeholderImportance) float64 {
	switch s {
	case models.StakeholderExecutive:
		return 25
	case models.StakeholderClient:
		return 20
	case models.StakeholderDirectReport:
		return 15
	case models.StakeholderTeam:
		return 10
	case models.StakeholderVendor:
		return 8
	default:
		return 5
	}
}

func initiativePoints(n int) float64 {
	p := n * pointsPerInitiative
	if p > maxInitiativePoints {
		p = maxInitiativePoints
	}
	if p < 0 {
		p = 0
	}
	return float64(p)
}

func outcomePoints(o models.OutcomeValue) float64 {
	switch o {
	case models.OutcomeHigh:
		return pointsOutcomeHigh
	case models.OutcomeMedium:
		return pointsOutcomeMedium
	default:
		return pointsOutcomeLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

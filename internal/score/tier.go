package score

import "github.com/josephgoksu/IntakeWing/models"

// Tier thresholds. Boundaries are inclusive on the lower bound: a score of
// exactly 90 is tier 1.
const (
	tierCriticalAt = 90
	tierHighAt     = 70
	tierMediumAt   = 50
	tierLowAt      = 30
)

// TierFor maps a score to its priority tier. It is total over the int
// range; scores are expected to be clamped to [0,100] by Score.
func TierFor(score int) models.Tier {
	switch {
	case score >= tierCriticalAt:
		return models.TierCritical
	case score >= tierHighAt:
		return models.TierHigh
	case score >= tierMediumAt:
		return models.TierMedium
	case score >= tierLowAt:
		return models.TierLow
	default:
		return models.TierNoise
	}
}

// Midpoint returns the representative score at the center of a tier's
// range. The feedback loop uses it as the implied target of an override.
func Midpoint(t models.Tier) int {
	switch t {
	case models.TierCritical:
		return 95
	case models.TierHigh:
		return 80
	case models.TierMedium:
		return 60
	case models.TierLow:
		return 40
	default:
		return 15
	}
}

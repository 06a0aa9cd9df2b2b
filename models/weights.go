package models

import "time"

// Weights is the vector of scoring-factor weights. The reference split is
// 30/25/25/15/5; the scorer rescales each sub-score by factor/reference.
type Weights struct {
	DecisionImpact        float64 `json:"decisionImpact" validate:"gt=0"`
	TimeSensitivity       float64 `json:"timeSensitivity" validate:"gt=0"`
	StakeholderImportance float64 `json:"stakeholderImportance" validate:"gt=0"`
	StrategicAlignment    float64 `json:"strategicAlignment" validate:"gt=0"`
	OutcomeValue          float64 `json:"outcomeValue" validate:"gt=0"`
}

// ReferenceWeights returns the canonical 30/25/25/15/5 split the scorer's
// point tables are defined against.
func ReferenceWeights() Weights {
	return Weights{
		DecisionImpact:        30,
		TimeSensitivity:       25,
		StakeholderImportance: 25,
		StrategicAlignment:    15,
		OutcomeValue:          5,
	}
}

// WeightConfiguration is a versioned, immutable snapshot of the scoring
// weights. Exactly one configuration is active at a time (the highest
// persisted version); updates create a new version rather than mutating in
// place, so past scores remain explainable.
type WeightConfiguration struct {
	Version   int       `json:"version" validate:"min=1"`
	Weights   Weights   `json:"weights" validate:"required"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	// Note records which override events produced this version.
	Note string `json:"note,omitempty"`
}

// NewWeightConfiguration returns version 1 carrying the reference weights.
func NewWeightConfiguration() WeightConfiguration {
	return WeightConfiguration{
		Version:   1,
		Weights:   ReferenceWeights(),
		CreatedAt: time.Now(),
		Note:      "initial reference weights",
	}
}

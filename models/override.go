package models

import "time"

// OverrideEvent is the immutable audit record of a user manually changing
// an item's tier. Events are never deleted; they feed the adaptive
// feedback loop and form the system's explanation trail.
type OverrideEvent struct {
	ID      string `json:"id" validate:"required,uuid4"`
	ItemID  string `json:"itemId" validate:"required,uuid4"`
	OldTier Tier   `json:"oldTier" validate:"min=1,max=5"`
	NewTier Tier   `json:"newTier" validate:"min=1,max=5"`
	Reason  string `json:"reason,omitempty"`
	// ScoreAtOverride preserves the system score the user disagreed with.
	ScoreAtOverride int       `json:"scoreAtOverride" validate:"min=0,max=100"`
	CreatedAt       time.Time `json:"createdAt" validate:"required"`
	// ConsumedBy is the weight-configuration version whose adjustment
	// consumed this event, or 0 while it is still pending.
	ConsumedBy int `json:"consumedBy,omitempty"`
}

// Raised reports whether the user moved the item to a more urgent tier.
// Tier 1 is the most urgent, so a raise is a numeric decrease.
func (e OverrideEvent) Raised() bool {
	return e.NewTier < e.OldTier
}

package models

// MetricsDateFormat is the canonical key format for daily rollups.
const MetricsDateFormat = "2006-01-02"

// ProcessingMetrics is the daily rollup of intake health. A row is created
// once per day, updated idempotently as the day's events occur, and left
// immutable after day rollover.
type ProcessingMetrics struct {
	Date                   string  `json:"date" validate:"required,datetime=2006-01-02"`
	ItemsCaptured          int     `json:"itemsCaptured" validate:"min=0"`
	ItemsProcessed         int     `json:"itemsProcessed" validate:"min=0"`
	TotalProcessingSeconds float64 `json:"totalProcessingSeconds" validate:"min=0"`
	BacklogSize            int     `json:"backlogSize" validate:"min=0"`
	InformationDebt        int     `json:"informationDebt" validate:"min=0"`
	OverloadRisk           int     `json:"overloadRisk" validate:"min=0,max=100"`
	StrategicTimeRatio     float64 `json:"strategicTimeRatio" validate:"min=0,max=1"`
}

// AvgProcessingSeconds returns the mean processing time for the day, or 0
// when nothing was processed.
func (m ProcessingMetrics) AvgProcessingSeconds() float64 {
	if m.ItemsProcessed == 0 {
		return 0
	}
	return m.TotalProcessingSeconds / float64(m.ItemsProcessed)
}

// Alert is a threshold breach surfaced by the metrics collector.
type Alert struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Value     int    `json:"value"`
	Threshold int    `json:"threshold"`
}

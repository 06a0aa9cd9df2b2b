// Package metrics computes the daily intake-health rollup: throughput,
// backlog, information debt, overload risk, and the strategic-time ratio.
// The collector is read-only over items; it writes nothing but the day's
// ProcessingMetrics row.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/store"
)

// Options holds the alert thresholds.
type Options struct {
	// OverloadAlertAt raises an alert when the overload-risk score reaches
	// this bound.
	OverloadAlertAt int
	// DebtAlertAt raises an alert when information debt reaches this count.
	DebtAlertAt int
	// DebtAfter is the staleness threshold for information debt.
	DebtAfter time.Duration
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		OverloadAlertAt: 70,
		DebtAlertAt:     10,
		DebtAfter:       48 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.OverloadAlertAt <= 0 {
		o.OverloadAlertAt = d.OverloadAlertAt
	}
	if o.DebtAlertAt <= 0 {
		o.DebtAlertAt = d.DebtAlertAt
	}
	if o.DebtAfter <= 0 {
		o.DebtAfter = d.DebtAfter
	}
	return o
}

// Collector computes and persists daily rollups.
type Collector struct {
	store store.ItemStore
	opts  Options
}

// NewCollector creates a collector over the given store.
func NewCollector(s store.ItemStore, opts Options) *Collector {
	return &Collector{store: s, opts: opts.withDefaults()}
}

// OverloadRisk is the documented monotonic formula: linear in backlog size
// plus the day-over-day capture delta, clamped to [0,100]. Holding the
// capture rate constant, risk never decreases as backlog grows.
func OverloadRisk(backlog, todayCaptured, yesterdayCaptured int) int {
	delta := todayCaptured - yesterdayCaptured
	if delta < 0 {
		delta = 0
	}
	risk := 2*backlog + 5*delta
	if risk < 0 {
		risk = 0
	}
	if risk > 100 {
		risk = 100
	}
	return risk
}

// Collect computes the rollup for now's date, persists it idempotently,
// and returns it together with any threshold alerts.
func (c *Collector) Collect(ctx context.Context, now time.Time) (models.ProcessingMetrics, []models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return models.ProcessingMetrics{}, nil, err
	}

	items, err := c.store.ListItems(nil, nil)
	if err != nil {
		return models.ProcessingMetrics{}, nil, fmt.Errorf("list items for metrics: %w", err)
	}

	today := now.Format(models.MetricsDateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(models.MetricsDateFormat)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	m := models.ProcessingMetrics{Date: today}
	var (
		completed          int
		completedStrategic int
		yesterdayCaptured  int
	)
	for _, item := range items {
		if item.CapturedAt.Format(models.MetricsDateFormat) == yesterday {
			yesterdayCaptured++
		}
		if !item.CapturedAt.Before(dayStart) {
			m.ItemsCaptured++
		}
		if item.ProcessedAt != nil && !item.ProcessedAt.Before(dayStart) {
			m.ItemsProcessed++
			m.TotalProcessingSeconds += item.ProcessedAt.Sub(item.CapturedAt).Seconds()
		}
		if item.Status == models.StatusPending {
			m.BacklogSize++
			if now.Sub(item.CapturedAt) > c.opts.DebtAfter {
				m.InformationDebt++
			}
		}
		if item.Status == models.StatusCompleted {
			completed++
			if item.Classification.StrategicAlignment == models.AlignCore {
				completedStrategic++
			}
		}
	}

	m.OverloadRisk = OverloadRisk(m.BacklogSize, m.ItemsCaptured, yesterdayCaptured)
	if completed > 0 {
		m.StrategicTimeRatio = float64(completedStrategic) / float64(completed)
	}

	if err := c.store.UpsertMetrics(m); err != nil {
		return models.ProcessingMetrics{}, nil, fmt.Errorf("persist metrics rollup: %w", err)
	}

	return m, c.alerts(m), nil
}

func (c *Collector) alerts(m models.ProcessingMetrics) []models.Alert {
	var alerts []models.Alert
	if m.OverloadRisk >= c.opts.OverloadAlertAt {
		alerts = append(alerts, models.Alert{
			Kind:      "overload-risk",
			Message:   fmt.Sprintf("overload risk %d at or above threshold %d", m.OverloadRisk, c.opts.OverloadAlertAt),
			Value:     m.OverloadRisk,
			Threshold: c.opts.OverloadAlertAt,
		})
	}
	if m.InformationDebt >= c.opts.DebtAlertAt {
		alerts = append(alerts, models.Alert{
			Kind:      "information-debt",
			Message:   fmt.Sprintf("%d pending items older than %s (threshold %d)", m.InformationDebt, c.opts.DebtAfter, c.opts.DebtAlertAt),
			Value:     m.InformationDebt,
			Threshold: c.opts.DebtAlertAt,
		})
	}
	return alerts
}

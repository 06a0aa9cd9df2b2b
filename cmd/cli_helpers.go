/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/josephgoksu/IntakeWing/internal/batch"
	"github.com/josephgoksu/IntakeWing/internal/classify"
	"github.com/josephgoksu/IntakeWing/internal/engine"
	"github.com/josephgoksu/IntakeWing/internal/feedback"
	"github.com/josephgoksu/IntakeWing/internal/metrics"
	"github.com/josephgoksu/IntakeWing/internal/telemetry"
	"github.com/josephgoksu/IntakeWing/store"
)

// buildEngine wires the store and the rule classifier into an engine. The
// caller owns the returned store's Close.
func buildEngine() (*engine.Engine, store.ItemStore, error) {
	s, err := GetStore()
	if err != nil {
		return nil, nil, err
	}
	cfg := GetConfig()
	classifier := classify.NewRuleClassifier(cfg.Classify.ConfidenceThreshold)
	return engine.New(s, classifier), s, nil
}

// buildScheduler wires the batch scheduler from config.
func buildScheduler(s store.ItemStore, onAgenda func(batch.Agenda)) *batch.Scheduler {
	cfg := GetConfig()
	return batch.NewScheduler(s, batch.Options{
		DailySpec:   cfg.Batch.DailySpec,
		WeeklySpec:  cfg.Batch.WeeklySpec,
		MonthlySpec: cfg.Batch.MonthlySpec,
		StaleAfter:  time.Duration(cfg.Batch.StaleAfterDays) * 24 * time.Hour,
	}, onAgenda)
}

// buildAdjuster wires the adaptive feedback loop from config.
func buildAdjuster(s store.ItemStore) *feedback.Adjuster {
	cfg := GetConfig()
	return feedback.NewAdjuster(s, feedback.Options{
		MinEvents:    cfg.Feedback.MinEvents,
		MaxStepPct:   cfg.Feedback.MaxStepPct,
		MinFactorPct: cfg.Feedback.MinFactorPct,
		MaxFactorPct: cfg.Feedback.MaxFactorPct,
	})
}

// buildCollector wires the metrics collector from config.
func buildCollector(s store.ItemStore) *metrics.Collector {
	cfg := GetConfig()
	return metrics.NewCollector(s, metrics.Options{
		OverloadAlertAt: cfg.Metrics.OverloadAlertAt,
		DebtAlertAt:     cfg.Metrics.DebtAlertAt,
		DebtAfter:       time.Duration(cfg.Metrics.DebtAfterHours) * time.Hour,
	})
}

// trackUsage emits one anonymous telemetry event for a command run.
func trackUsage(command string, props telemetry.Properties) {
	cfg := GetConfig()
	client := telemetry.NewClient(telemetry.ClientConfig{
		APIKey:  cfg.Telemetry.APIKey,
		Version: version,
		Enabled: cfg.Telemetry.Enabled,
	})
	defer func() { _ = client.Close() }()
	client.Track(command, props)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDateFlag parses a YYYY-MM-DD flag value; empty is the zero time.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const dbPathKey = "dbPath"

// SQLiteItemStore implements ItemStore on an embedded SQLite database.
// It is the backend of choice when item volume outgrows a single document
// file; the schema mirrors the durable contract field for field.
type SQLiteItemStore struct {
	db *sql.DB
}

// NewSQLiteItemStore creates a new instance. Initialize must be called
// before use.
func NewSQLiteItemStore() *SQLiteItemStore {
	return &SQLiteItemStore{}
}

// Initialize opens the database at config["dbPath"] and applies the schema.
func (s *SQLiteItemStore) Initialize(config map[string]string) error {
	path := config[dbPathKey]
	if path == "" {
		path = "intake.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single writer keeps SQLite happy under concurrent capture.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("init schema: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteItemStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func marshalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

const itemColumns = `id, source, source_ref, type, title, content, captured_at,
	classification, needs_review, priority_score, tier, scored_with,
	actionable, next_action, context_tags, project_id, initiative_ids, due_at,
	gtd_stage, status, batch_review_at, processed_at, notes, created_at, updated_at`

func scanItem(row interface{ Scan(...interface{}) error }) (models.InformationItem, error) {
	var (
		item           models.InformationItem
		classification string
		tags           string
		initiatives    string
		notes          string
		needsReview    int
		actionable     int
		tier           int
	)
	err := row.Scan(
		&item.ID, &item.Source, &item.SourceRef, &item.Type, &item.Title, &item.Content, &item.CapturedAt,
		&classification, &needsReview, &item.PriorityScore, &tier, &item.ScoredWith,
		&actionable, &item.NextAction, &tags, &item.ProjectID, &initiatives, &item.DueAt,
		&item.Stage, &item.Status, &item.BatchReviewAt, &item.ProcessedAt, &notes, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return models.InformationItem{}, err
	}
	item.NeedsReview = needsReview != 0
	item.Actionable = actionable != 0
	item.Tier = models.Tier(tier)
	if err := json.Unmarshal([]byte(classification), &item.Classification); err != nil {
		return models.InformationItem{}, fmt.Errorf("decode classification: %w", err)
	}
	_ = json.Unmarshal([]byte(tags), &item.ContextTags)
	_ = json.Unmarshal([]byte(initiatives), &item.InitiativeIDs)
	_ = json.Unmarshal([]byte(notes), &item.Notes)
	return item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteItemStore) writeItem(tx *sql.Tx, item models.InformationItem, insert bool) error {
	var stmt string
	if insert {
		stmt = `INSERT INTO items (` + itemColumns + `) VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	} else {
		stmt = `UPDATE items SET source=?, source_ref=?, type=?, title=?, content=?, captured_at=?,
			classification=?, needs_review=?, priority_score=?, tier=?, scored_with=?,
			actionable=?, next_action=?, context_tags=?, project_id=?, initiative_ids=?, due_at=?,
			gtd_stage=?, status=?, batch_review_at=?, processed_at=?, notes=?, created_at=?, updated_at=?
			WHERE id=?`
	}

	args := []interface{}{
		item.Source, item.SourceRef, string(item.Type), item.Title, item.Content, item.CapturedAt,
		marshalJSON(item.Classification), boolToInt(item.NeedsReview), item.PriorityScore, int(item.Tier), item.ScoredWith,
		boolToInt(item.Actionable), item.NextAction, marshalJSON(item.ContextTags), item.ProjectID, marshalJSON(item.InitiativeIDs), item.DueAt,
		string(item.Stage), string(item.Status), item.BatchReviewAt, item.ProcessedAt, marshalJSON(item.Notes), item.CreatedAt, item.UpdatedAt,
	}
	if insert {
		args = append([]interface{}{item.ID}, args...)
	} else {
		args = append(args, item.ID)
	}

	_, err := tx.Exec(stmt, args...)
	return err
}

// CreateItem adds a new item; the store assigns the ID.
func (s *SQLiteItemStore) CreateItem(item models.InformationItem) (models.InformationItem, error) {
	if item.ID == "" {
		item.ID = generateID()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.CapturedAt.IsZero() {
		item.CapturedAt = now
	}
	if item.Stage == "" {
		item.Stage = models.StageCaptured
	}
	if item.Status == "" {
		item.Status = models.StatusPending
	}
	if err := models.ValidateStruct(item); err != nil {
		return models.InformationItem{}, fmt.Errorf("%w: new item: %v", types.ErrValidation, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("begin insert: %w", err)
	}
	if err := s.writeItem(tx, item, true); err != nil {
		_ = tx.Rollback()
		return models.InformationItem{}, fmt.Errorf("insert item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.InformationItem{}, fmt.Errorf("commit insert: %w", err)
	}
	return item, nil
}

// GetItem retrieves an item by ID.
func (s *SQLiteItemStore) GetItem(id string) (models.InformationItem, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InformationItem{}, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
	}
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// UpdateItem applies mutate inside a transaction.
func (s *SQLiteItemStore) UpdateItem(id string, mutate func(*models.InformationItem) error) (models.InformationItem, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.InformationItem{}, fmt.Errorf("begin update: %w", err)
	}
	row := tx.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return models.InformationItem{}, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
	}
	if err != nil {
		_ = tx.Rollback()
		return models.InformationItem{}, fmt.Errorf("load item for update: %w", err)
	}

	if err := mutate(&item); err != nil {
		_ = tx.Rollback()
		return models.InformationItem{}, err
	}
	item.UpdatedAt = time.Now().UTC()
	if err := models.ValidateStruct(item); err != nil {
		_ = tx.Rollback()
		return models.InformationItem{}, fmt.Errorf("%w: updated item %s: %v", types.ErrValidation, id, err)
	}
	if err := s.writeItem(tx, item, false); err != nil {
		_ = tx.Rollback()
		return models.InformationItem{}, fmt.Errorf("update item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.InformationItem{}, fmt.Errorf("commit update: %w", err)
	}
	return item, nil
}

// ListItems retrieves items, optionally filtered and sorted.
func (s *SQLiteItemStore) ListItems(filterFn func(models.InformationItem) bool, sortFn func([]models.InformationItem) []models.InformationItem) ([]models.InformationItem, error) {
	rows, err := s.db.Query(`SELECT ` + itemColumns + ` FROM items ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.InformationItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if filterFn == nil || filterFn(item) {
			out = append(out, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	if sortFn != nil {
		out = sortFn(out)
	}
	return out, nil
}

// AppendOverride records an immutable override event.
func (s *SQLiteItemStore) AppendOverride(ev models.OverrideEvent) (models.OverrideEvent, error) {
	if ev.ID == "" {
		ev.ID = generateID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := models.ValidateStruct(ev); err != nil {
		return models.OverrideEvent{}, fmt.Errorf("%w: override event: %v", types.ErrValidation, err)
	}
	_, err := s.db.Exec(
		`INSERT INTO override_events (id, item_id, old_tier, new_tier, reason, score_at_override, created_at, consumed_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ItemID, int(ev.OldTier), int(ev.NewTier), ev.Reason, ev.ScoreAtOverride, ev.CreatedAt, ev.ConsumedBy,
	)
	if err != nil {
		return models.OverrideEvent{}, fmt.Errorf("insert override: %w", err)
	}
	return ev, nil
}

// ListOverrides retrieves override events, oldest first.
func (s *SQLiteItemStore) ListOverrides(filterFn func(models.OverrideEvent) bool) ([]models.OverrideEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, item_id, old_tier, new_tier, reason, score_at_override, created_at, consumed_by
		 FROM override_events ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.OverrideEvent
	for rows.Next() {
		var ev models.OverrideEvent
		var oldTier, newTier int
		if err := rows.Scan(&ev.ID, &ev.ItemID, &oldTier, &newTier, &ev.Reason, &ev.ScoreAtOverride, &ev.CreatedAt, &ev.ConsumedBy); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		ev.OldTier = models.Tier(oldTier)
		ev.NewTier = models.Tier(newTier)
		if filterFn == nil || filterFn(ev) {
			out = append(out, ev)
		}
	}
	return out, rows.Err()
}

// MarkOverridesConsumed stamps events with the consuming weight version.
func (s *SQLiteItemStore) MarkOverridesConsumed(ids []string, version int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin consume: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`UPDATE override_events SET consumed_by = ? WHERE id = ? AND consumed_by = 0`, version, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("consume override %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// ActiveWeights returns the highest-version configuration, seeding the
// reference configuration on first use.
func (s *SQLiteItemStore) ActiveWeights() (models.WeightConfiguration, error) {
	var (
		cfg     models.WeightConfiguration
		weights string
	)
	err := s.db.QueryRow(
		`SELECT version, weights, created_at, note FROM weight_configurations ORDER BY version DESC LIMIT 1`,
	).Scan(&cfg.Version, &weights, &cfg.CreatedAt, &cfg.Note)
	if errors.Is(err, sql.ErrNoRows) {
		seed := models.NewWeightConfiguration()
		return s.insertWeights(seed)
	}
	if err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("active weights: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &cfg.Weights); err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("decode weights: %w", err)
	}
	return cfg, nil
}

func (s *SQLiteItemStore) insertWeights(cfg models.WeightConfiguration) (models.WeightConfiguration, error) {
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO weight_configurations (version, weights, created_at, note) VALUES (?, ?, ?, ?)`,
		cfg.Version, marshalJSON(cfg.Weights), cfg.CreatedAt, cfg.Note,
	)
	if err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("insert weights: %w", err)
	}
	return cfg, nil
}

// AppendWeights persists a new weight configuration version.
func (s *SQLiteItemStore) AppendWeights(cfg models.WeightConfiguration) (models.WeightConfiguration, error) {
	active, err := s.ActiveWeights()
	if err != nil {
		return models.WeightConfiguration{}, err
	}
	if cfg.Version != active.Version+1 {
		return models.WeightConfiguration{}, fmt.Errorf("weight version %d is not the successor of active version %d", cfg.Version, active.Version)
	}
	if err := models.ValidateStruct(cfg); err != nil {
		return models.WeightConfiguration{}, fmt.Errorf("%w: weight configuration: %v", types.ErrValidation, err)
	}
	return s.insertWeights(cfg)
}

// ListWeights returns all weight configuration versions, ascending.
func (s *SQLiteItemStore) ListWeights() ([]models.WeightConfiguration, error) {
	rows, err := s.db.Query(`SELECT version, weights, created_at, note FROM weight_configurations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.WeightConfiguration
	for rows.Next() {
		var (
			cfg     models.WeightConfiguration
			weights string
		)
		if err := rows.Scan(&cfg.Version, &weights, &cfg.CreatedAt, &cfg.Note); err != nil {
			return nil, fmt.Errorf("scan weights: %w", err)
		}
		if err := json.Unmarshal([]byte(weights), &cfg.Weights); err != nil {
			return nil, fmt.Errorf("decode weights: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// UpsertMetrics creates or idempotently replaces the rollup for the date.
func (s *SQLiteItemStore) UpsertMetrics(m models.ProcessingMetrics) error {
	if err := models.ValidateStruct(m); err != nil {
		return fmt.Errorf("%w: processing metrics: %v", types.ErrValidation, err)
	}
	_, err := s.db.Exec(
		`INSERT INTO processing_metrics
			(date, items_captured, items_processed, total_processing_seconds, backlog_size, information_debt, overload_risk, strategic_time_ratio)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
			items_captured=excluded.items_captured,
			items_processed=excluded.items_processed,
			total_processing_seconds=excluded.total_processing_seconds,
			backlog_size=excluded.backlog_size,
			information_debt=excluded.information_debt,
			overload_risk=excluded.overload_risk,
			strategic_time_ratio=excluded.strategic_time_ratio`,
		m.Date, m.ItemsCaptured, m.ItemsProcessed, m.TotalProcessingSeconds, m.BacklogSize, m.InformationDebt, m.OverloadRisk, m.StrategicTimeRatio,
	)
	if err != nil {
		return fmt.Errorf("upsert metrics: %w", err)
	}
	return nil
}

// GetMetrics retrieves the rollup for a date.
func (s *SQLiteItemStore) GetMetrics(date string) (models.ProcessingMetrics, error) {
	var m models.ProcessingMetrics
	err := s.db.QueryRow(
		`SELECT date, items_captured, items_processed, total_processing_seconds, backlog_size, information_debt, overload_risk, strategic_time_ratio
		 FROM processing_metrics WHERE date = ?`, date,
	).Scan(&m.Date, &m.ItemsCaptured, &m.ItemsProcessed, &m.TotalProcessingSeconds, &m.BacklogSize, &m.InformationDebt, &m.OverloadRisk, &m.StrategicTimeRatio)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProcessingMetrics{}, fmt.Errorf("no metrics rollup for %s", date)
	}
	if err != nil {
		return models.ProcessingMetrics{}, fmt.Errorf("get metrics: %w", err)
	}
	return m, nil
}

// LatestMetrics retrieves the most recent rollup.
func (s *SQLiteItemStore) LatestMetrics() (models.ProcessingMetrics, error) {
	var m models.ProcessingMetrics
	err := s.db.QueryRow(
		`SELECT date, items_captured, items_processed, total_processing_seconds, backlog_size, information_debt, overload_risk, strategic_time_ratio
		 FROM processing_metrics ORDER BY date DESC LIMIT 1`,
	).Scan(&m.Date, &m.ItemsCaptured, &m.ItemsProcessed, &m.TotalProcessingSeconds, &m.BacklogSize, &m.InformationDebt, &m.OverloadRisk, &m.StrategicTimeRatio)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProcessingMetrics{}, fmt.Errorf("no metrics rollups recorded")
	}
	if err != nil {
		return models.ProcessingMetrics{}, fmt.Errorf("latest metrics: %w", err)
	}
	return m, nil
}

// Backup uses SQLite's VACUUM INTO to produce a consistent copy.
func (s *SQLiteItemStore) Backup(destinationPath string) error {
	if _, err := s.db.Exec(`VACUUM INTO ?`, destinationPath); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

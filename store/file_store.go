package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/josephgoksu/IntakeWing/models"
	"github.com/josephgoksu/IntakeWing/types"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultDataFile   = "intake.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// document is the on-disk shape of the file store: the four durable record
// sets in one file, guarded by a checksum sidecar.
type document struct {
	Items     []models.InformationItem     `json:"items" yaml:"items" toml:"items"`
	Overrides []models.OverrideEvent       `json:"overrideEvents" yaml:"overrideEvents" toml:"overrideEvents"`
	Weights   []models.WeightConfiguration `json:"weightConfigurations" yaml:"weightConfigurations" toml:"weightConfigurations"`
	Metrics   []models.ProcessingMetrics   `json:"processingMetrics" yaml:"processingMetrics" toml:"processingMetrics"`
}

// FileItemStore implements the ItemStore interface using a file backend.
// It supports JSON, YAML, and TOML formats and uses file-level locking, so
// concurrent capture from several processes stays safe.
type FileItemStore struct {
	filePath string
	doc      document
	flk      *flock.Flock
	format   string
}

// NewFileItemStore creates a new instance of FileItemStore.
// It does not initialize the store; Initialize must be called separately.
func NewFileItemStore() *FileItemStore {
	return &FileItemStore{}
}

// Initialize configures the FileItemStore. It expects a 'dataFile' key in
// the config map; if absent it defaults to 'intake.json' in the working
// directory. Existing data is loaded and a file lock established.
func (s *FileItemStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are json, yaml, toml", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath)

	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire initial lock for %s: %w", s.filePath, err)
	}
	if !locked {
		if err := s.flk.Lock(); err != nil {
			return fmt.Errorf("failed to acquire blocking initial lock for %s: %w", s.filePath, err)
		}
	}
	defer func() { _ = s.flk.Unlock() }()

	s.doc = document{}
	return s.loadInternal()
}

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data) // Write never returns an error
	return hex.EncodeToString(hasher.Sum(nil))
}

// loadInternal reads the document from disk, verifies its checksum, and
// unmarshals. The caller must hold the file lock.
func (s *FileItemStore) loadInternal() error {
	checksumFilePath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.doc = document{}
			_ = os.Remove(checksumFilePath)
			if f, createErr := os.OpenFile(s.filePath, os.O_CREATE|os.O_RDWR, 0o644); createErr != nil {
				return fmt.Errorf("failed to create data file %s: %w", s.filePath, createErr)
			} else {
				_ = f.Close()
			}
			_ = os.WriteFile(checksumFilePath, []byte(calculateChecksum([]byte{})), 0o644)
			return nil
		}
		return fmt.Errorf("failed to read data file %s: %w", s.filePath, err)
	}

	if _, err := os.Stat(checksumFilePath); err == nil {
		expectedChecksumBytes, readErr := os.ReadFile(checksumFilePath)
		if readErr != nil {
			return fmt.Errorf("failed to read checksum file %s: %w", checksumFilePath, readErr)
		}
		expectedChecksum := strings.TrimSpace(string(expectedChecksumBytes))
		actualChecksum := calculateChecksum(data)
		if actualChecksum != expectedChecksum {
			return fmt.Errorf("checksum mismatch for %s - expected %s, got %s - file is corrupt or tampered", s.filePath, expectedChecksum, actualChecksum)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking checksum file %s: %w", checksumFilePath, err)
	}

	if len(data) == 0 {
		_ = os.WriteFile(checksumFilePath, []byte(calculateChecksum([]byte{})), 0o644)
		s.doc = document{}
		return nil
	}

	var doc document
	switch s.format {
	case formatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal JSON from %s: %w", s.filePath, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal YAML from %s: %w", s.filePath, err)
		}
	case formatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal TOML from %s: %w", s.filePath, err)
		}
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}

	s.doc = doc
	return nil
}

// saveInternal writes the document to disk atomically, then its checksum.
// The caller must hold the file lock.
func (s *FileItemStore) saveInternal() error {
	var marshaledData []byte
	var err error

	switch s.format {
	case formatJSON:
		marshaledData, err = json.MarshalIndent(s.doc, "", "  ")
	case formatYAML:
		marshaledData, err = yaml.Marshal(s.doc)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(s.doc); encodeErr == nil {
			marshaledData = buf.Bytes()
		} else {
			err = fmt.Errorf("failed to marshal TOML: %w", encodeErr)
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal store document to %s: %w", s.format, err)
	}

	tempFilePath := s.filePath + ".tmp"
	checksumFilePath := s.filePath + checksumSuffix
	tempChecksumFilePath := checksumFilePath + ".tmp"

	defer func() { _ = os.Remove(tempFilePath) }()
	defer func() { _ = os.Remove(tempChecksumFilePath) }()

	if err := os.WriteFile(tempFilePath, marshaledData, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempFilePath, err)
	}

	actualChecksum := calculateChecksum(marshaledData)
	if err := os.WriteFile(tempChecksumFilePath, []byte(actualChecksum), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumFilePath, err)
	}

	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempFilePath, s.filePath, err)
	}
	if err := os.Rename(tempChecksumFilePath, checksumFilePath); err != nil {
		return fmt.Errorf("CRITICAL: data file %s updated, but failed to update checksum file %s: %w - store may be inconsistent", s.filePath, checksumFilePath, err)
	}

	return nil
}

// generateID creates a new universally unique identifier string.
func generateID() string {
	return uuid.NewString()
}

// withLock acquires the file lock, reloads state from disk, runs fn, and
// saves if fn reports a mutation. Reloading per operation keeps concurrent
// writers coherent under the advisory lock.
func (s *FileItemStore) withLock(fn func() (mutated bool, err error)) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock store file: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return fmt.Errorf("failed to reload store: %w", err)
	}

	mutated, err := fn()
	if err != nil {
		return err
	}
	if mutated {
		if err := s.saveInternal(); err != nil {
			// Reload from the unchanged file so in-memory state does not
			// drift from disk.
			_ = s.loadInternal()
			return fmt.Errorf("failed to save store: %w", err)
		}
	}
	return nil
}

func (s *FileItemStore) itemIndex(id string) int {
	for i := range s.doc.Items {
		if s.doc.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateItem adds a new item. The store assigns the ID unless the caller
// supplied one that does not collide.
func (s *FileItemStore) CreateItem(item models.InformationItem) (models.InformationItem, error) {
	var created models.InformationItem
	err := s.withLock(func() (bool, error) {
		if item.ID == "" {
			item.ID = generateID()
		} else if s.itemIndex(item.ID) >= 0 {
			return false, fmt.Errorf("item with ID '%s' already exists", item.ID)
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
			return false, fmt.Errorf("%w: new item: %v", types.ErrValidation, err)
		}

		s.doc.Items = append(s.doc.Items, item)
		created = item
		return true, nil
	})
	if err != nil {
		return models.InformationItem{}, err
	}
	return created, nil
}

// GetItem retrieves an item by its unique identifier.
func (s *FileItemStore) GetItem(id string) (models.InformationItem, error) {
	var found models.InformationItem
	err := s.withLock(func() (bool, error) {
		idx := s.itemIndex(id)
		if idx < 0 {
			return false, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
		}
		found = s.doc.Items[idx]
		return false, nil
	})
	if err != nil {
		return models.InformationItem{}, err
	}
	return found, nil
}

// UpdateItem applies mutate to the stored item under the file lock.
func (s *FileItemStore) UpdateItem(id string, mutate func(*models.InformationItem) error) (models.InformationItem, error) {
	var updated models.InformationItem
	err := s.withLock(func() (bool, error) {
		idx := s.itemIndex(id)
		if idx < 0 {
			return false, fmt.Errorf("%w: %s", types.ErrItemNotFound, id)
		}
		item := s.doc.Items[idx]
		if err := mutate(&item); err != nil {
			return false, err
		}
		item.UpdatedAt = time.Now().UTC()
		if err := models.ValidateStruct(item); err != nil {
			return false, fmt.Errorf("%w: updated item %s: %v", types.ErrValidation, id, err)
		}
		s.doc.Items[idx] = item
		updated = item
		return true, nil
	})
	if err != nil {
		return models.InformationItem{}, err
	}
	return updated, nil
}

// ListItems retrieves items, optionally filtered and sorted.
func (s *FileItemStore) ListItems(filterFn func(models.InformationItem) bool, sortFn func([]models.InformationItem) []models.InformationItem) ([]models.InformationItem, error) {
	var out []models.InformationItem
	err := s.withLock(func() (bool, error) {
		out = make([]models.InformationItem, 0, len(s.doc.Items))
		for _, item := range s.doc.Items {
			if filterFn == nil || filterFn(item) {
				out = append(out, item)
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if sortFn != nil {
		out = sortFn(out)
	}
	return out, nil
}

// AppendOverride records an immutable override event.
func (s *FileItemStore) AppendOverride(ev models.OverrideEvent) (models.OverrideEvent, error) {
	var created models.OverrideEvent
	err := s.withLock(func() (bool, error) {
		if ev.ID == "" {
			ev.ID = generateID()
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = time.Now().UTC()
		}
		if err := models.ValidateStruct(ev); err != nil {
			return false, fmt.Errorf("%w: override event: %v", types.ErrValidation, err)
		}
		s.doc.Overrides = append(s.doc.Overrides, ev)
		created = ev
		return true, nil
	})
	if err != nil {
		return models.OverrideEvent{}, err
	}
	return created, nil
}

// ListOverrides retrieves override events, oldest first.
func (s *FileItemStore) ListOverrides(filterFn func(models.OverrideEvent) bool) ([]models.OverrideEvent, error) {
	var out []models.OverrideEvent
	err := s.withLock(func() (bool, error) {
		out = make([]models.OverrideEvent, 0, len(s.doc.Overrides))
		for _, ev := range s.doc.Overrides {
			if filterFn == nil || filterFn(ev) {
				out = append(out, ev)
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MarkOverridesConsumed stamps events with the consuming weight version.
func (s *FileItemStore) MarkOverridesConsumed(ids []string, version int) error {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	return s.withLock(func() (bool, error) {
		mutated := false
		for i := range s.doc.Overrides {
			if idSet[s.doc.Overrides[i].ID] && s.doc.Overrides[i].ConsumedBy == 0 {
				s.doc.Overrides[i].ConsumedBy = version
				mutated = true
			}
		}
		return mutated, nil
	})
}

// ActiveWeights returns the highest-version weight configuration, seeding
// the reference configuration on first use.
func (s *FileItemStore) ActiveWeights() (models.WeightConfiguration, error) {
	var active models.WeightConfiguration
	err := s.withLock(func() (bool, error) {
		if len(s.doc.Weights) == 0 {
			s.doc.Weights = append(s.doc.Weights, models.NewWeightConfiguration())
			active = s.doc.Weights[0]
			return true, nil
		}
		active = s.doc.Weights[0]
		for _, cfg := range s.doc.Weights {
			if cfg.Version > active.Version {
				active = cfg
			}
		}
		return false, nil
	})
	if err != nil {
		return models.WeightConfiguration{}, err
	}
	return active, nil
}

// AppendWeights persists a new weight configuration version.
func (s *FileItemStore) AppendWeights(cfg models.WeightConfiguration) (models.WeightConfiguration, error) {
	err := s.withLock(func() (bool, error) {
		maxVersion := 0
		for _, existing := range s.doc.Weights {
			if existing.Version > maxVersion {
				maxVersion = existing.Version
			}
		}
		if cfg.Version != maxVersion+1 {
			return false, fmt.Errorf("weight version %d is not the successor of active version %d", cfg.Version, maxVersion)
		}
		if cfg.CreatedAt.IsZero() {
			cfg.CreatedAt = time.Now().UTC()
		}
		if err := models.ValidateStruct(cfg); err != nil {
			return false, fmt.Errorf("%w: weight configuration: %v", types.ErrValidation, err)
		}
		s.doc.Weights = append(s.doc.Weights, cfg)
		return true, nil
	})
	if err != nil {
		return models.WeightConfiguration{}, err
	}
	return cfg, nil
}

// ListWeights returns all weight configuration versions, ascending.
func (s *FileItemStore) ListWeights() ([]models.WeightConfiguration, error) {
	var out []models.WeightConfiguration
	err := s.withLock(func() (bool, error) {
		out = append([]models.WeightConfiguration{}, s.doc.Weights...)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// UpsertMetrics creates or idempotently replaces the rollup for the date.
func (s *FileItemStore) UpsertMetrics(m models.ProcessingMetrics) error {
	return s.withLock(func() (bool, error) {
		if err := models.ValidateStruct(m); err != nil {
			return false, fmt.Errorf("%w: processing metrics: %v", types.ErrValidation, err)
		}
		for i := range s.doc.Metrics {
			if s.doc.Metrics[i].Date == m.Date {
				s.doc.Metrics[i] = m
				return true, nil
			}
		}
		s.doc.Metrics = append(s.doc.Metrics, m)
		return true, nil
	})
}

// GetMetrics retrieves the rollup for a date.
func (s *FileItemStore) GetMetrics(date string) (models.ProcessingMetrics, error) {
	var found models.ProcessingMetrics
	err := s.withLock(func() (bool, error) {
		for _, m := range s.doc.Metrics {
			if m.Date == date {
				found = m
				return false, nil
			}
		}
		return false, fmt.Errorf("no metrics rollup for %s", date)
	})
	if err != nil {
		return models.ProcessingMetrics{}, err
	}
	return found, nil
}

// LatestMetrics retrieves the most recent rollup.
func (s *FileItemStore) LatestMetrics() (models.ProcessingMetrics, error) {
	var latest models.ProcessingMetrics
	err := s.withLock(func() (bool, error) {
		if len(s.doc.Metrics) == 0 {
			return false, fmt.Errorf("no metrics rollups recorded")
		}
		latest = s.doc.Metrics[0]
		for _, m := range s.doc.Metrics {
			if m.Date > latest.Date {
				latest = m
			}
		}
		return false, nil
	})
	if err != nil {
		return models.ProcessingMetrics{}, err
	}
	return latest, nil
}

// Backup copies the current data file to the destination path.
func (s *FileItemStore) Backup(destinationPath string) error {
	return s.withLock(func() (bool, error) {
		data, err := os.ReadFile(s.filePath)
		if err != nil {
			return false, fmt.Errorf("failed to read data file for backup: %w", err)
		}
		if dir := filepath.Dir(destinationPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return false, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(destinationPath, data, 0o644); err != nil {
			return false, fmt.Errorf("failed to write backup to %s: %w", destinationPath, err)
		}
		return false, nil
	})
}

// Close releases the file lock.
func (s *FileItemStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}

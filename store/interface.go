package store

import "github.com/josephgoksu/IntakeWing/models"

// ItemStore defines the persistence contract for the intake engine. It
// covers the four durable record sets: information items, override events,
// weight configurations, and daily processing metrics.
//
// Items are append-mostly and never physically deleted; override events and
// weight configurations are append-only and immutable once written.
type ItemStore interface {
	// Initialize configures the store with backend-specific settings
	// (file path, data format, database path). It must be called before
	// any other store operation.
	Initialize(config map[string]string) error

	// CreateItem adds a new item to the store. The store assigns the ID;
	// a client-supplied ID is rejected if it already exists. It returns
	// the created item with store-generated fields populated.
	CreateItem(item models.InformationItem) (models.InformationItem, error)

	// GetItem retrieves an item by its unique identifier. It returns
	// types.ErrItemNotFound (wrapped) when no such item exists.
	GetItem(id string) (models.InformationItem, error)

	// UpdateItem loads the item, applies mutate under the store lock, and
	// persists the result. If mutate returns an error the item is left
	// unchanged. UpdatedAt is refreshed on success.
	UpdateItem(id string, mutate func(*models.InformationItem) error) (models.InformationItem, error)

	// ListItems retrieves items, optionally filtered and sorted. A nil
	// filterFn selects everything; a nil sortFn keeps natural order.
	ListItems(filterFn func(models.InformationItem) bool, sortFn func([]models.InformationItem) []models.InformationItem) ([]models.InformationItem, error)

	// AppendOverride records an immutable override event. The store
	// assigns the event ID.
	AppendOverride(ev models.OverrideEvent) (models.OverrideEvent, error)

	// ListOverrides retrieves override events, optionally filtered,
	// oldest first.
	ListOverrides(filterFn func(models.OverrideEvent) bool) ([]models.OverrideEvent, error)

	// MarkOverridesConsumed stamps the given events with the weight
	// configuration version that consumed them. Events stay in the log.
	MarkOverridesConsumed(ids []string, version int) error

	// ActiveWeights returns the highest-version weight configuration,
	// seeding the reference configuration on first use.
	ActiveWeights() (models.WeightConfiguration, error)

	// AppendWeights persists a new weight configuration version. The
	// version must be exactly one greater than the current active
	// version; past versions are never mutated.
	AppendWeights(cfg models.WeightConfiguration) (models.WeightConfiguration, error)

	// ListWeights returns all weight configuration versions, ascending.
	ListWeights() ([]models.WeightConfiguration, error)

	// UpsertMetrics creates or idempotently updates the rollup for the
	// row's date. Rows for past dates are left untouched by the
	// collector; the store itself does not enforce rollover.
	UpsertMetrics(m models.ProcessingMetrics) error

	// GetMetrics retrieves the rollup for a date (models.MetricsDateFormat).
	GetMetrics(date string) (models.ProcessingMetrics, error)

	// LatestMetrics retrieves the most recent rollup.
	LatestMetrics() (models.ProcessingMetrics, error)

	// Backup writes a consistent copy of the store to the destination path.
	Backup(destinationPath string) error

	// Close releases any resources held by the store, such as file locks
	// or database connections.
	Close() error
}

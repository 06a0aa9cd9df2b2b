// Package telemetry provides opt-in anonymous usage analytics for
// IntakeWing. Events carry the command name and coarse counts only, never
// item titles or content. Disabled by default; enabled explicitly via
// config.
package telemetry

import (
	"io"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients. The abstraction allows
// mocking in tests and swapping implementations.
type Client interface {
	// Track sends an event asynchronously; a no-op when disabled.
	Track(event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// enqueuer is the subset of the PostHog client we use, mockable in tests.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient wraps the PostHog SDK for async telemetry.
type PostHogClient struct {
	mu       sync.RWMutex
	client   enqueuer
	distinct string
	version  string
	enabled  bool
}

// ClientConfig holds configuration for initializing the telemetry client.
type ClientConfig struct {
	// APIKey is the PostHog project API key.
	APIKey string

	// Version is the CLI version string.
	Version string

	// Enabled turns tracking on. With Enabled false or an empty APIKey the
	// client is a silent no-op.
	Enabled bool
}

// NewClient creates a telemetry client. It never fails hard: a
// misconfigured client degrades to a no-op.
func NewClient(cfg ClientConfig) *PostHogClient {
	c := &PostHogClient{version: cfg.Version}
	if !cfg.Enabled || cfg.APIKey == "" {
		return c
	}
	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{})
	if err != nil {
		return c
	}
	c.client = ph
	c.distinct = uuid.NewString()
	c.enabled = true
	return c
}

// Track sends an anonymous event. Safe to call on a disabled client.
func (c *PostHogClient) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled || c.client == nil {
		return
	}
	props := posthog.NewProperties().
		Set("version", c.version).
		Set("os", runtime.GOOS).
		Set("arch", runtime.GOARCH)
	for k, v := range properties {
		props.Set(k, v)
	}
	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.distinct,
		Event:      event,
		Properties: props,
	})
}

// Close flushes pending events.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.enabled = false
	return err
}

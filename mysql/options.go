package mysql

import "github.com/afterten/orderbox"

// Config defines MySQL store behavior.
type Config struct {
	// TablePrefix is prepended to every table name, e.g. "pos_".
	TablePrefix string
	// Clock is the time source for enqueue timestamps.
	Clock orderbox.Clock
	// Logger receives warnings from live views and maintenance loops.
	Logger orderbox.Logger
	// Hub is the change notification hub. One hub is created per store
	// unless callers share one across stores explicitly.
	Hub *orderbox.Hub
	// ValidateItems controls JSON validation of order item snapshots.
	ValidateItems    bool
	validateItemsSet bool
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = orderbox.SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = orderbox.NopLogger{}
	}
	if c.Hub == nil {
		c.Hub = orderbox.NewHub()
	}
	if !c.validateItemsSet {
		c.ValidateItems = true
	}

	return c
}

// Option configures the MySQL store.
type Option func(*Config)

// WithTablePrefix sets the table name prefix.
func WithTablePrefix(prefix string) Option {
	return func(c *Config) {
		c.TablePrefix = prefix
	}
}

// WithClock sets the time source used by the store.
func WithClock(clock orderbox.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the store logger.
func WithLogger(logger orderbox.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHub sets a shared change notification hub.
func WithHub(hub *orderbox.Hub) Option {
	return func(c *Config) {
		c.Hub = hub
	}
}

// WithValidateItems enables or disables JSON validation of item snapshots.
// Disable it for callers that store snapshots in a non-JSON encoding.
func WithValidateItems(enabled bool) Option {
	return func(c *Config) {
		c.ValidateItems = enabled
		c.validateItemsSet = true
	}
}

package dynamosink

// Config holds configuration for the DynamoDB sink.
type Config struct {
	// Table is the DynamoDB table holding one item per store key.
	// Default: "dine_features"
	Table string

	// KeyAttribute is the binary partition key attribute of the table.
	// Default: "pk"
	KeyAttribute string

	// Region overrides the region of the loaded AWS configuration (Open only).
	Region string

	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local (Open only).
	Endpoint string

	// Concurrency is the number of keys worked on in parallel within a batch.
	// Commands on the same key always run in submission order.
	// Default: 16
	// Max: 256
	Concurrency int

	// ConsistentRead requests strongly consistent reads.
	// Default: true
	ConsistentRead bool
}

const (
	defaultTable        = "dine_features"
	defaultKeyAttribute = "pk"
	defaultConcurrency  = 16
	maxConcurrency      = 256
)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Table:          defaultTable,
		KeyAttribute:   defaultKeyAttribute,
		Concurrency:    defaultConcurrency,
		ConsistentRead: true,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = defaultTable
	}
	if c.KeyAttribute == "" {
		c.KeyAttribute = defaultKeyAttribute
	}
	if c.Concurrency < 1 {
		c.Concurrency = defaultConcurrency
	}
	if c.Concurrency > maxConcurrency {
		c.Concurrency = maxConcurrency
	}
}

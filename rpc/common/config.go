package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucid-kv/lucid/lib/crypt"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// EncryptionConfig holds the settings for encryption of values at rest
type EncryptionConfig struct {
	Enabled bool
	Key     string // hex encoded key material, 16, 24 or 32 bytes
}

// ServerConfig holds all configuration parameters of a lucid server.
// It is built once at startup and passed to the server; it is read-only afterwards.
type ServerConfig struct {
	// Shards are the ids of the stores served; every shard is an independent store
	Shards []uint64

	// Number of internal shards of each store's database (<= 0 = number of CPUs)
	DBShards int

	// Encryption of values at rest, shared by all shards
	Encryption EncryptionConfig

	// Transport settings
	TimeoutSecond int64
	Endpoint      string

	// Endpoint of the Prometheus metrics listener (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// Validate checks the configuration for errors that would prevent the server from starting
func (c *ServerConfig) Validate() error {
	if len(c.Shards) == 0 {
		return fmt.Errorf("at least one shard is required")
	}
	seen := make(map[uint64]bool, len(c.Shards))
	for _, id := range c.Shards {
		if seen[id] {
			return fmt.Errorf("shard %d is configured more than once", id)
		}
		seen[id] = true
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Encryption.Enabled {
		if strings.TrimSpace(c.Encryption.Key) == "" {
			return fmt.Errorf("encryption is enabled but no encryption key is set")
		}
		if _, err := c.NewCipher(); err != nil {
			return err
		}
	}
	return nil
}

// NewCipher builds the value cipher described by the configuration
func (c *ServerConfig) NewCipher() (crypt.ICipher, error) {
	if !c.Encryption.Enabled {
		return crypt.NewIdentityCipher(), nil
	}
	key, err := crypt.ParseHexKey(c.Encryption.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	cipher, err := crypt.NewCipher(true, key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return cipher, nil
}

// String returns a formatted string representation of the configuration.
// Key material is never included.
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	// Metrics
	addSection("Metrics")
	if c.MetricsEndpoint == "" {
		addField("Endpoint", "disabled")
	} else {
		addField("Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Storage
	addSection("Storage")
	if c.DBShards <= 0 {
		addField("DB Shards", "auto")
	} else {
		addField("DB Shards", strconv.Itoa(c.DBShards))
	}
	if c.Encryption.Enabled {
		addField("Encryption", "enabled")
		addField("Encryption Key", fmt.Sprintf("set (%d hex chars)", len(strings.TrimSpace(c.Encryption.Key))))
	} else {
		addField("Encryption", "disabled")
	}

	// Shards
	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard, 10), "memory store")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

// Package config loads runtime configuration from the environment.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Helius endpoints; the API key is appended as a query parameter.
const (
	HeliusRPCURL = "https://mainnet.helius-rpc.com/"
	HeliusWSURL  = "wss://mainnet.helius-rpc.com/"
)

// ErrMissingAPIKey is returned when no RPC credential is configured.
var ErrMissingAPIKey = errors.New("HELIUS_API_KEY is not set")

// Config holds all configuration for the application
type Config struct {
	// Ledger data provider configuration
	RPC RPCConfig

	// Lookup defaults
	Lookup LookupConfig

	// Logging configuration
	Log LogConfig
}

// RPCConfig holds Solana RPC connection settings
type RPCConfig struct {
	APIKey     string        `envconfig:"HELIUS_API_KEY"`
	URL        string        `envconfig:"SOLANA_RPC_URL"`
	WSURL      string        `envconfig:"SOLANA_WS_URL"`
	Timeout    time.Duration `envconfig:"RPC_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"RPC_MAX_RETRIES" default:"0"`
	RetryDelay time.Duration `envconfig:"RPC_RETRY_DELAY" default:"1s"`
}

// LookupConfig holds defaults for the transaction lookup
type LookupConfig struct {
	Signature    string `envconfig:"TOKENDELTA_SIGNATURE"`
	Mint         string `envconfig:"TOKENDELTA_MINT" default:"So11111111111111111111111111111111111111112"`
	Commitment   string `envconfig:"TOKENDELTA_COMMITMENT" default:"finalized"`
	MaxTxVersion int    `envconfig:"TOKENDELTA_MAX_TX_VERSION" default:"0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file, then the environment.
// Variables already set in the environment win over .env entries.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Validate checks that the configuration can reach a node.
// A custom SOLANA_RPC_URL removes the need for an API key.
func (c *Config) Validate() error {
	if c.RPC.URL == "" && c.RPC.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.RPC.MaxRetries < 0 {
		return errors.Newf("RPC_MAX_RETRIES must be >= 0, got %d", c.RPC.MaxRetries)
	}
	switch c.Lookup.Commitment {
	case "confirmed", "finalized":
	default:
		return errors.Newf("unsupported commitment %q (want confirmed or finalized)", c.Lookup.Commitment)
	}
	return nil
}

// RPCEndpoint returns the HTTP JSON-RPC endpoint.
func (c *RPCConfig) RPCEndpoint() string {
	if c.URL != "" {
		return c.URL
	}
	return withAPIKey(HeliusRPCURL, c.APIKey)
}

// WSEndpoint returns the WebSocket endpoint. Without an explicit
// SOLANA_WS_URL it is derived from the HTTP endpoint.
func (c *RPCConfig) WSEndpoint() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	if c.URL == "" {
		return withAPIKey(HeliusWSURL, c.APIKey)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return c.URL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	return u.String()
}

func withAPIKey(base, key string) string {
	if key == "" {
		return base
	}
	return base + "?" + url.Values{"api-key": {key}}.Encode()
}

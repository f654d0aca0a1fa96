package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"HELIUS_API_KEY", "SOLANA_RPC_URL", "SOLANA_WS_URL",
	"RPC_TIMEOUT", "RPC_MAX_RETRIES", "RPC_RETRY_DELAY",
	"TOKENDELTA_SIGNATURE", "TOKENDELTA_MINT", "TOKENDELTA_COMMITMENT", "TOKENDELTA_MAX_TX_VERSION",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func noDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HELIUS_API_KEY", "key123")

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "key123", cfg.RPC.APIKey)
	assert.Equal(t, 30*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, 0, cfg.RPC.MaxRetries)
	assert.Equal(t, "So11111111111111111111111111111111111111112", cfg.Lookup.Mint)
	assert.Equal(t, "finalized", cfg.Lookup.Commitment)
	assert.Equal(t, 0, cfg.Lookup.MaxTxVersion)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=key123", cfg.RPC.RPCEndpoint())
	assert.Equal(t, "wss://mainnet.helius-rpc.com/?api-key=key123", cfg.RPC.WSEndpoint())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noDotEnv(t))
	require.NoError(t, err)

	err = cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HELIUS_API_KEY=from-file\nRPC_MAX_RETRIES=2\n"), 0o600))

	// Environment wins over the file.
	t.Setenv("RPC_MAX_RETRIES", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.RPC.APIKey)
	assert.Equal(t, 1, cfg.RPC.MaxRetries)
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_TIMEOUT", "soon")

	_, err := Load(noDotEnv(t))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"custom url without key", func(c *Config) { c.RPC.APIKey = ""; c.RPC.URL = "http://localhost:8899" }, false},
		{"no key no url", func(c *Config) { c.RPC.APIKey = "" }, true},
		{"negative retries", func(c *Config) { c.RPC.MaxRetries = -1 }, true},
		{"processed commitment", func(c *Config) { c.Lookup.Commitment = "processed" }, true},
		{"confirmed commitment", func(c *Config) { c.Lookup.Commitment = "confirmed" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				RPC:    RPCConfig{APIKey: "k"},
				Lookup: LookupConfig{Commitment: "finalized"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWSEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  RPCConfig
		want string
	}{
		{"explicit", RPCConfig{WSURL: "wss://ws.example", URL: "https://rpc.example"}, "wss://ws.example"},
		{"derived https", RPCConfig{URL: "https://rpc.example/path?x=1"}, "wss://rpc.example/path?x=1"},
		{"derived http", RPCConfig{URL: "http://localhost:8899"}, "ws://localhost:8899"},
		{"helius", RPCConfig{APIKey: "abc"}, "wss://mainnet.helius-rpc.com/?api-key=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.WSEndpoint())
		})
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-delta/internal/config"
	"solana-token-delta/internal/lookup"
)

const testSig = "3Zwewzar6cFPd7u1wXjThtVw4J6yCndnfJeFW9tRgBngGPBSHfsMVeoZ2VapCqFdpvJVGRTxLQR7Y9xBSbmhwsCM"

var managedVars = []string{
	"HELIUS_API_KEY", "SOLANA_RPC_URL", "SOLANA_WS_URL",
	"RPC_TIMEOUT", "RPC_MAX_RETRIES", "RPC_RETRY_DELAY",
	"TOKENDELTA_SIGNATURE", "TOKENDELTA_MINT", "TOKENDELTA_COMMITMENT", "TOKENDELTA_MAX_TX_VERSION",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// rpcServer answers getTransaction with result and counts requests.
func rpcServer(t *testing.T, result string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "getTransaction" {
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const receivedTx = `{
	"slot": 250000000,
	"blockTime": 1700000000,
	"version": 0,
	"meta": {
		"err": null,
		"fee": 5000,
		"preTokenBalances": [],
		"postTokenBalances": [
			{"accountIndex": 1, "mint": "So11111111111111111111111111111111111111112",
			 "uiTokenAmount": {"amount": "2500000000", "decimals": 9, "uiAmount": 2.5, "uiAmountString": "2.5"}}
		]
	}
}`

func TestRoot_Received(t *testing.T) {
	clearEnv(t)
	server, calls := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	out, err := execute(t, testSig)
	require.NoError(t, err)
	assert.Equal(t, "Received 2.5 WSOL\n", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRoot_NotFoundIsNotAnError(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, "null")
	t.Setenv("SOLANA_RPC_URL", server.URL)

	out, err := execute(t, testSig)
	require.NoError(t, err)
	assert.Equal(t, "Transaction "+testSig+" not found or not finalized.\n", out)
}

func TestRoot_SignatureFromEnv(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)
	t.Setenv("TOKENDELTA_SIGNATURE", testSig)

	out, err := execute(t, "--symbol", "SOL")
	require.NoError(t, err)
	assert.Equal(t, "Received 2.5 SOL\n", out)
}

func TestRoot_OtherMintHasNoMovement(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	mint := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	out, err := execute(t, "--mint", mint, testSig)
	require.NoError(t, err)
	assert.Equal(t, "No "+mint+" movement in this transaction.\n", out)
}

func TestRoot_CSV(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	out, err := execute(t, "--format", "csv", testSig)
	require.NoError(t, err)
	assert.Contains(t, out, ",received,true,false,250000000,1700000000,0,2.5,2.5\n")
}

func TestRoot_MetricsTextfile(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	path := filepath.Join(t.TempDir(), "tokendelta.prom")
	_, err := execute(t, "--metrics-textfile", path, testSig)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `solana_token_delta_lookup_total{outcome="received"} 1`)
	assert.Contains(t, string(data), "solana_token_delta_lookup_last_delta 2.5")
}

func TestRoot_WaitThenFetch(t *testing.T) {
	clearEnv(t)
	server, calls := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	subscribed := make(chan string, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	wsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req struct {
			ID     uint64        `json:"id"`
			Method string        `json:"method"`
			Params []interface{} `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req.Method
		conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 3})
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "signatureNotification",
			"params": map[string]interface{}{
				"subscription": 3,
				"result": map[string]interface{}{
					"context": map[string]interface{}{"slot": 250000000},
					"value":   map[string]interface{}{"err": nil},
				},
			},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer wsServer.Close()
	t.Setenv("SOLANA_WS_URL", "ws"+strings.TrimPrefix(wsServer.URL, "http"))

	out, err := execute(t, "--wait", "--wait-timeout", "5s", testSig)
	require.NoError(t, err)
	assert.Equal(t, "signatureSubscribe", <-subscribed)
	assert.Equal(t, "Received 2.5 WSOL\n", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRoot_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, testSig)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestRoot_InvalidInputNeverQueries(t *testing.T) {
	clearEnv(t)
	server, calls := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	_, err := execute(t, "not-a-signature")
	assert.ErrorIs(t, err, lookup.ErrInvalidSignature)

	_, err = execute(t, "--mint", "abc", testSig)
	assert.ErrorIs(t, err, lookup.ErrInvalidMint)

	_, err = execute(t)
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = execute(t, "--commitment", "processed", testSig)
	assert.Error(t, err)

	assert.Zero(t, calls.Load())
}

func TestRoot_RPCError(t *testing.T) {
	clearEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	t.Setenv("SOLANA_RPC_URL", server.URL)
	t.Setenv("LOG_LEVEL", "fatal")

	out, err := execute(t, testSig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch transaction")
	assert.Empty(t, out)
}

func TestRun_ReportsErrorOnce(t *testing.T) {
	clearEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	t.Setenv("SOLANA_RPC_URL", server.URL)
	t.Setenv("LOG_LEVEL", "debug")

	// The logger writes to the process stderr; capture it alongside the command's.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStderr := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = origStderr })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := run(context.Background(), cmd, []string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), testSig})

	os.Stderr = origStderr
	require.NoError(t, w.Close())
	logged, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "Error: fetch transaction"), stderr.String())

	all := string(logged) + stderr.String()
	assert.Equal(t, 1, strings.Count(all, "unexpected status 502"), all)
}

func TestRun_Success(t *testing.T) {
	clearEnv(t)
	server, _ := rpcServer(t, receivedTx)
	t.Setenv("SOLANA_RPC_URL", server.URL)

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	code := run(context.Background(), cmd, []string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), testSig})
	assert.Equal(t, 0, code)
	assert.Equal(t, "Received 2.5 WSOL\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestResolveSignature(t *testing.T) {
	sig, err := resolveSignature([]string{"a"}, "b")
	require.NoError(t, err)
	assert.Equal(t, "a", sig)

	sig, err = resolveSignature(nil, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", sig)

	_, err = resolveSignature(nil, "")
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

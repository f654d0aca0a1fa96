package stub

import (
	"context"
	"sync"

	"solana-token-delta/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Unknown signatures resolve to (nil, nil), the node's not-found answer.
type RPCClient struct {
	mu           sync.Mutex
	Transactions map[string]*solana.Transaction
	Errors       map[string]error
	Calls        []Call
}

// Call records one GetTransaction invocation.
type Call struct {
	Signature string
	Opts      solana.TransactionOpts
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Errors:       make(map[string]error),
	}
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string, opts *solana.TransactionOpts) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := Call{Signature: signature}
	if opts != nil {
		call.Opts = *opts
	}
	c.Calls = append(c.Calls, call)

	if err, ok := c.Errors[signature]; ok {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// FailTransaction makes lookups of signature return err.
func (c *RPCClient) FailTransaction(signature string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errors[signature] = err
}

// WSClient implements solana.WSClient for testing.
type WSClient struct {
	mu     sync.Mutex
	Result *solana.SignatureResult
	Err    error
	// Block makes WaitForSignature wait for context cancellation.
	Block  bool
	Waited []string
	Closed bool
}

// WaitForSignature returns the configured result.
func (c *WSClient) WaitForSignature(ctx context.Context, signature, _ string) (*solana.SignatureResult, error) {
	c.mu.Lock()
	c.Waited = append(c.Waited, signature)
	block, result, err := c.Block, c.Result, c.Err
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return &solana.SignatureResult{}, nil
}

// Close marks the stub closed.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// WaitedFor returns a copy of the signatures waited for so far.
func (c *WSClient) WaitedFor() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Waited...)
}

// IsClosed reports whether Close was called.
func (c *WSClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Closed
}

package solana

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrClientClosed is returned when a WebSocket client is used after Close.
var ErrClientClosed = errors.New("client closed")

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// WaitForSignature blocks until the transaction identified by signature
	// reaches the given commitment level.
	WaitForSignature(ctx context.Context, signature, commitment string) (*SignatureResult, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureResult is the payload of a signatureNotification.
type SignatureResult struct {
	Slot int64
	// Err is the transaction execution error, nil on success.
	Err interface{}
}

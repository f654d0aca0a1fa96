package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used for transaction lookups.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns nil without error when the node does not know the transaction
	// at the requested commitment.
	GetTransaction(ctx context.Context, signature string, opts *TransactionOpts) (*Transaction, error)
}

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Version   string
	Meta      *TransactionMeta
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	LogMessages       []string
}

// Failed reports whether the transaction executed with an error.
func (tx *Transaction) Failed() bool {
	return tx != nil && tx.Meta != nil && tx.Meta.Err != nil
}

// TokenBalances returns the pre and post token balance lists.
// A transaction without metadata has empty lists.
func (tx *Transaction) TokenBalances() (pre, post []TokenBalance) {
	if tx == nil || tx.Meta == nil {
		return nil, nil
	}
	return tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances
}

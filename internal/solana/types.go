package solana

// Commitment levels accepted by the RPC node.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// WrappedSOLMint is the mainnet mint of wrapped SOL.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// TransactionOpts defines optional parameters for getTransaction.
type TransactionOpts struct {
	// MaxSupportedTransactionVersion is the highest transaction version the
	// caller can interpret. Negative omits the parameter (legacy only).
	MaxSupportedTransactionVersion int
	Commitment                     string
}

// TokenBalance is one account's holding of one token before or after a transaction.
type TokenBalance struct {
	AccountIndex  int
	Mint          string
	Owner         string
	ProgramID     string
	UITokenAmount UITokenAmount
}

// UITokenAmount carries a token amount in raw and display denominations.
type UITokenAmount struct {
	Amount         string   // raw base units
	Decimals       int
	UIAmount       *float64 // deprecated by the RPC, kept for completeness
	UIAmountString string
}

package reporting

import (
	"fmt"

	"solana-token-delta/internal/observability"
)

// RenderText renders the one-line summary.
func RenderText(r *Report) string {
	switch r.Outcome {
	case observability.OutcomeNotFound:
		return fmt.Sprintf("Transaction %s not found or not finalized.\n", r.Signature)
	case observability.OutcomeNoMovement:
		return fmt.Sprintf("No %s movement in this transaction.\n", r.Symbol)
	case observability.OutcomeReceived:
		return fmt.Sprintf("Received %s %s\n", r.Delta.String(), r.Symbol)
	default:
		return fmt.Sprintf("Sent %s %s\n", r.Delta.Abs().String(), r.Symbol)
	}
}

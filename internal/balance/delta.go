// Package balance computes token balance changes across a transaction.
package balance

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"solana-token-delta/internal/solana"
)

// ComputeDelta returns the net change of mint's human-readable amount between
// the pre and post balance lists: post minus pre.
//
// Only the first entry for mint in each list counts. A mint missing from a
// list, or an entry with an empty amount string, contributes zero.
func ComputeDelta(pre, post []solana.TokenBalance, mint string) decimal.Decimal {
	preAmount, postAmount := Amounts(pre, post, mint)
	return postAmount.Sub(preAmount)
}

// Amounts returns mint's amount in the pre and post lists.
func Amounts(pre, post []solana.TokenBalance, mint string) (preAmount, postAmount decimal.Decimal) {
	return amountOf(pre, mint), amountOf(post, mint)
}

func amountOf(balances []solana.TokenBalance, mint string) decimal.Decimal {
	entry, ok := lo.Find(balances, func(b solana.TokenBalance) bool {
		return b.Mint == mint
	})
	if !ok || entry.UITokenAmount.UIAmountString == "" {
		return decimal.Zero
	}
	return ParseAmount(entry.UITokenAmount.UIAmountString)
}

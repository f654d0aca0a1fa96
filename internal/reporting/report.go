// Package reporting renders lookup results for humans and scripts.
package reporting

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"solana-token-delta/internal/lookup"
	"solana-token-delta/internal/solana"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Report is the presentation view of one lookup.
type Report struct {
	Signature string
	Mint      string
	Symbol    string
	Outcome   string
	Found     bool
	Failed    bool
	Slot      int64
	BlockTime int64 // Unix seconds, 0 when the node did not report it
	Pre       decimal.Decimal
	Post      decimal.Decimal
	Delta     decimal.Decimal
}

// NewReport builds a report from a lookup result. An empty symbol falls back
// to DefaultSymbol.
func NewReport(r *lookup.Result, symbol string) *Report {
	if symbol == "" {
		symbol = DefaultSymbol(r.Mint)
	}
	return &Report{
		Signature: r.Signature,
		Mint:      r.Mint,
		Symbol:    symbol,
		Outcome:   r.Outcome(),
		Found:     r.Found,
		Failed:    r.Failed,
		Slot:      r.Slot,
		BlockTime: r.BlockTime,
		Pre:       r.Pre,
		Post:      r.Post,
		Delta:     r.Delta,
	}
}

// DefaultSymbol returns WSOL for the wrapped SOL mint and the mint address otherwise.
func DefaultSymbol(mint string) string {
	if mint == "" || mint == solana.WrappedSOLMint {
		return "WSOL"
	}
	return mint
}

// Write renders the report in format to w.
func Write(w io.Writer, rep *Report, format string) error {
	var out string
	switch format {
	case "", FormatText:
		out = RenderText(rep)
	case FormatMarkdown:
		out = RenderMarkdown(rep)
	case FormatCSV:
		out = RenderCSV(rep)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if _, err := io.WriteString(w, out); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}

// WriteText renders the one-line summary of r to w.
func WriteText(w io.Writer, r *lookup.Result, symbol string) error {
	return Write(w, NewReport(r, symbol), FormatText)
}

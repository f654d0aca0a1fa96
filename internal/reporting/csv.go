package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the report as a header line and one row.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("signature,mint,symbol,outcome,found,failed,slot,block_time,pre,post,delta\n")
	sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%t,%t,%d,%d,%s,%s,%s\n",
		r.Signature,
		r.Mint,
		csvField(r.Symbol),
		r.Outcome,
		r.Found,
		r.Failed,
		r.Slot,
		r.BlockTime,
		r.Pre.String(),
		r.Post.String(),
		r.Delta.String(),
	))

	return sb.String()
}

// csvField quotes user supplied values that would break the row.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Token Delta\n\n")
	sb.WriteString(strings.TrimSuffix(RenderText(r), "\n"))
	sb.WriteString("\n\n")

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Signature | `%s` |\n", r.Signature))
	sb.WriteString(fmt.Sprintf("| Mint | `%s` |\n", r.Mint))
	sb.WriteString(fmt.Sprintf("| Outcome | %s |\n", r.Outcome))

	if r.Found {
		sb.WriteString(fmt.Sprintf("| Slot | %d |\n", r.Slot))
		if r.BlockTime > 0 {
			sb.WriteString(fmt.Sprintf("| Block Time | %s |\n", time.Unix(r.BlockTime, 0).UTC().Format(time.RFC3339)))
		}
		status := "success"
		if r.Failed {
			status = "failed"
		}
		sb.WriteString(fmt.Sprintf("| Status | %s |\n", status))
		sb.WriteString(fmt.Sprintf("| Pre Balance | %s %s |\n", r.Pre.String(), r.Symbol))
		sb.WriteString(fmt.Sprintf("| Post Balance | %s %s |\n", r.Post.String(), r.Symbol))
		sb.WriteString(fmt.Sprintf("| Delta | %s %s |\n", r.Delta.String(), r.Symbol))
	}

	return sb.String()
}

package report

import (
	"strings"

	"gradebatch/internal/grading"
)

const header = "filename,total_score,feedback_breakdown"

// CSV serializes results to CSV text, one row per result in arrival order.
// Every row field is quoted with embedded quotes doubled, since scores and
// feedback are free-form and routinely contain commas, quotes and newlines;
// feedback entries collapse into a single field joined with "; ". Triggering
// the actual download or file write is the collaborator's concern.
func CSV(results []grading.Result) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, r := range results {
		b.WriteString(quote(r.FileName))
		b.WriteByte(',')
		b.WriteString(quote(r.TotalScore))
		b.WriteByte(',')
		b.WriteString(quote(strings.Join(r.Breakdown, "; ")))
		b.WriteByte('\n')
	}
	return b.String()
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

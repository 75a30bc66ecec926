package reporting

import (
	"fmt"
	"strings"

	"aave-reserves-lab/internal/quality"
)

// RenderQualityReport renders per-asset quality reports as a readable text
// block for the run log.
func RenderQualityReport(reports []*quality.Report) string {
	var sb strings.Builder

	sb.WriteString("Quality report\n")
	for _, r := range reports {
		status := "FAILED"
		if r.Passed {
			status = "passed"
		}
		sb.WriteString(fmt.Sprintf("  %-35s %s score=%.4f (index=%.4f rate=%.4f",
			r.Asset, status, r.Score, r.IndexScore, r.RateScore))
		if r.HasBalance {
			sb.WriteString(fmt.Sprintf(" balance=%.4f", r.BalanceScore))
		}
		sb.WriteString(")\n")
	}

	return sb.String()
}

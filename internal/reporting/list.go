package reporting

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// RenderResultList renders one line per stored result, in the order given.
func RenderResultList(results []*domain.SimulationResult) string {
	if len(results) == 0 {
		return "No stored results.\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tNAME\tCOPIED\tP&L\tROI")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			res.ID,
			time.UnixMilli(res.Timestamp).UTC().Format(time.RFC3339),
			res.Name,
			res.CopiedTrades, res.TotalTrades,
			signedUSD(res.TotalPnL),
			signedPct(res.ROI),
		)
	}
	tw.Flush()
	return sb.String()
}

package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	res := r.Result
	p := r.Params

	// Header
	sb.WriteString(fmt.Sprintf("# Simulation %s\n\n", res.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.UnixMilli(res.Timestamp).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run ID: `%s` | Trader: `%s`\n\n", res.ID, res.TraderAddress))

	// Parameters
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", p.CopyStrategy.Strategy))
	sb.WriteString(fmt.Sprintf("| Copy Size | %s |\n", p.CopyStrategy.SizeLabel()))
	sb.WriteString(fmt.Sprintf("| Multiplier | %s |\n", plain(p.CopyStrategy.TradeMultiplier)))
	sb.WriteString(fmt.Sprintf("| Order Bounds | %s - %s |\n", usd(p.CopyStrategy.MinOrderSizeUSD), usd(p.CopyStrategy.MaxOrderSizeUSD)))
	sb.WriteString(fmt.Sprintf("| History | %d days, max %d trades |\n", p.HistoryDays, p.MaxTrades))
	sb.WriteString(fmt.Sprintf("| Base Slippage | %s%% |\n", plain(p.BaseSlippagePct)))
	sb.WriteString(fmt.Sprintf("| Slippage per $100 | %s%% |\n", plain(p.SlippagePer100Pct)))
	sb.WriteString(fmt.Sprintf("| Transaction Fee | %s%% |\n", plain(p.TransactionFeePct)))
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Starting Capital | %s |\n", usd(res.StartingCapital)))
	sb.WriteString(fmt.Sprintf("| Current Capital | %s |\n", usd(res.CurrentCapital)))
	sb.WriteString(fmt.Sprintf("| Total P&L | %s |\n", signedUSD(res.TotalPnL)))
	sb.WriteString(fmt.Sprintf("| ROI | %s |\n", signedPct(res.ROI)))
	sb.WriteString(fmt.Sprintf("| Realized P&L | %s |\n", signedUSD(res.RealizedPnL)))
	sb.WriteString(fmt.Sprintf("| Unrealized P&L | %s |\n", signedUSD(res.UnrealizedPnL)))
	sb.WriteString(fmt.Sprintf("| Total Invested | %s |\n", usd(res.TotalInvested)))
	sb.WriteString(fmt.Sprintf("| Slippage Cost | %s |\n", usd(res.TotalSlippageCost)))
	sb.WriteString(fmt.Sprintf("| Avg Slippage | %s%% |\n", fixed(res.AvgSlippagePercent, 2)))
	sb.WriteString(fmt.Sprintf("| Trades (copied / skipped / total) | %d / %d / %d |\n",
		res.CopiedTrades, res.SkippedTrades, res.TotalTrades))
	sb.WriteString("\n")

	if len(r.SkipReasons) > 0 {
		sb.WriteString("## Skipped Trades\n\n")
		sb.WriteString("| Reason | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, s := range r.SkipReasons {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", s.Reason, s.Count))
		}
		sb.WriteString("\n")
	}

	// Positions
	sb.WriteString(fmt.Sprintf("## Open Positions (%d)\n\n", r.OpenCount))
	if len(r.Open) == 0 {
		sb.WriteString("No open positions.\n\n")
	} else {
		sb.WriteString("| Market | Outcome | Invested | Value | P&L |\n")
		sb.WriteString("|--------|---------|----------|-------|-----|\n")
		for _, row := range r.Open {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				escapeCell(row.Market), escapeCell(row.Outcome), usd(row.Invested), usd(row.Value), signedUSD(row.PnL)))
		}
		sb.WriteString("\n")
	}

	if r.ClosedCount > 0 {
		sb.WriteString(fmt.Sprintf("## Closed Positions (%d)\n\n", r.ClosedCount))
		sb.WriteString("| Market | Outcome | P&L |\n")
		sb.WriteString("|--------|---------|-----|\n")
		for _, row := range r.Closed {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				escapeCell(row.Market), escapeCell(row.Outcome), signedUSD(row.PnL)))
		}
		sb.WriteString("\n")

		cs := r.ClosedStats
		sb.WriteString("### Closed Position Stats\n\n")
		sb.WriteString("| Win Rate | Mean | Median | P10 | P90 | Stddev | Max Drawdown | Max Losing Streak |\n")
		sb.WriteString("|----------|------|--------|-----|-----|--------|--------------|-------------------|\n")
		sb.WriteString(fmt.Sprintf("| %s%% | %s | %s | %s | %s | %s | %s | %d |\n\n",
			fixed(cs.WinRate*100, 1),
			signedUSD(cs.MeanPnL),
			signedUSD(cs.MedianPnL),
			signedUSD(cs.P10PnL),
			signedUSD(cs.P90PnL),
			usd(cs.StddevPnL),
			usd(cs.MaxDrawdown),
			cs.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

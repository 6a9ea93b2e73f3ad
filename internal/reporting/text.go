package reporting

import (
	"fmt"
	"strings"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

var rule = strings.Repeat("=", 80)

// RenderText renders the console report of a simulation result.
func RenderText(r *Report) string {
	var sb strings.Builder
	res := r.Result
	p := r.Params

	sb.WriteString("\n" + rule + "\n")
	sb.WriteString("  REALISTIC COPY TRADING SIMULATION REPORT\n")
	sb.WriteString(rule + "\n\n")

	sb.WriteString(fmt.Sprintf("Trader: %s\n", res.TraderAddress))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", p.CopyStrategy.Strategy))
	if size := copySizeText(p.CopyStrategy); size != "" {
		sb.WriteString(fmt.Sprintf("Copy Size: %s\n", size))
	}
	sb.WriteString(fmt.Sprintf("Multiplier: %sx\n", plain(p.CopyStrategy.TradeMultiplier)))
	sb.WriteString(fmt.Sprintf("History window: %d day(s), max trades: %d\n", p.HistoryDays, p.MaxTrades))
	sb.WriteString("\n")

	// Realism factors
	sb.WriteString("Realism Factors:\n")
	sb.WriteString(fmt.Sprintf("  Detection delay: %ss\n", plain(p.DetectionDelaySec)))
	sb.WriteString(fmt.Sprintf("  Base slippage: %s%%\n", plain(p.BaseSlippagePct)))
	sb.WriteString(fmt.Sprintf("  Slippage per $100: +%s%%\n", plain(p.SlippagePer100Pct)))
	sb.WriteString(fmt.Sprintf("  Avg actual slippage: %s%%\n", fixed(res.AvgSlippagePercent, 2)))
	sb.WriteString(fmt.Sprintf("  Total slippage cost: %s\n", usd(res.TotalSlippageCost)))
	if p.TransactionFeePct > 0 {
		sb.WriteString(fmt.Sprintf("  Transaction fee: %s%%\n", plain(p.TransactionFeePct)))
	}
	sb.WriteString("\n")

	// Capital
	sb.WriteString("Capital:\n")
	sb.WriteString(fmt.Sprintf("  Starting: %s\n", usd(res.StartingCapital)))
	sb.WriteString(fmt.Sprintf("  Current:  %s\n", usd(res.CurrentCapital)))
	sb.WriteString("\n")

	// Performance
	sb.WriteString("Performance:\n")
	sb.WriteString(fmt.Sprintf("  Total P&L:     %s\n", signedUSD(res.TotalPnL)))
	sb.WriteString(fmt.Sprintf("  ROI:           %s\n", signedPct(res.ROI)))
	sb.WriteString(fmt.Sprintf("  Realized:      %s\n", signedUSD(res.RealizedPnL)))
	sb.WriteString(fmt.Sprintf("  Unrealized:    %s\n", signedUSD(res.UnrealizedPnL)))
	if p.LiveMarksApplied > 0 {
		sb.WriteString(fmt.Sprintf("  Live marks:    %d open position(s)\n", p.LiveMarksApplied))
	}
	sb.WriteString("\n")

	// Trades
	sb.WriteString("Trades:\n")
	sb.WriteString(fmt.Sprintf("  Total trades:  %d\n", res.TotalTrades))
	sb.WriteString(fmt.Sprintf("  Copied:        %d\n", res.CopiedTrades))
	sb.WriteString(fmt.Sprintf("  Skipped:       %d\n", res.SkippedTrades))
	for _, s := range r.SkipReasons {
		sb.WriteString(fmt.Sprintf("    %-22s %d\n", s.Reason, s.Count))
	}
	sb.WriteString("\n")

	// Positions
	sb.WriteString("Open Positions:\n")
	sb.WriteString(fmt.Sprintf("  Count: %d\n\n", r.OpenCount))
	for i, row := range r.Open {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, row.Market))
		sb.WriteString(fmt.Sprintf("     Outcome: %s | Invested: %s | Value: %s | P&L: %s\n",
			row.Outcome, usd(row.Invested), usd(row.Value), signedUSD(row.PnL)))
	}
	if more := r.OpenCount - len(r.Open); more > 0 {
		sb.WriteString(fmt.Sprintf("\n  ... and %d more positions\n", more))
	}

	if r.ClosedCount > 0 {
		sb.WriteString("\nClosed Positions:\n")
		sb.WriteString(fmt.Sprintf("  Count: %d\n\n", r.ClosedCount))
		for i, row := range r.Closed {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, row.Market))
			sb.WriteString(fmt.Sprintf("     Outcome: %s | P&L: %s\n", row.Outcome, signedUSD(row.PnL)))
		}
		if more := r.ClosedCount - len(r.Closed); more > 0 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more closed positions\n", more))
		}

		cs := r.ClosedStats
		sb.WriteString("\nClosed Position Stats:\n")
		sb.WriteString(fmt.Sprintf("  Win rate:      %s%% (%d/%d)\n", fixed(cs.WinRate*100, 1), cs.Wins, cs.Count))
		sb.WriteString(fmt.Sprintf("  Mean P&L:      %s\n", signedUSD(cs.MeanPnL)))
		sb.WriteString(fmt.Sprintf("  Median P&L:    %s\n", signedUSD(cs.MedianPnL)))
		sb.WriteString(fmt.Sprintf("  Best / Worst:  %s / %s\n", signedUSD(cs.MaxPnL), signedUSD(cs.MinPnL)))
		sb.WriteString(fmt.Sprintf("  Max drawdown:  %s\n", usd(cs.MaxDrawdown)))
		sb.WriteString(fmt.Sprintf("  Max losing streak: %d\n", cs.MaxConsecutiveLosses))
	}

	sb.WriteString("\n" + rule + "\n")
	return sb.String()
}

// copySizeText describes the copy size; ADAPTIVE has no fixed description.
func copySizeText(c domain.CopyStrategyConfig) string {
	switch c.Strategy {
	case domain.CopyStrategyFixed:
		return fmt.Sprintf("$%s (fixed amount per trade)", plain(c.CopySize))
	case domain.CopyStrategyPercentage:
		return fmt.Sprintf("%s%% (of trader order size)", plain(c.CopySize))
	case domain.CopyStrategyAdaptive:
		return fmt.Sprintf("%s%% (of trader order size, scaled by capital)", plain(c.CopySize))
	default:
		return ""
	}
}

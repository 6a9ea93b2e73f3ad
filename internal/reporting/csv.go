package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

var positionsHeader = []string{
	"market", "outcome", "asset", "closed", "shares_held", "entry_price", "exit_price",
	"invested", "current_value", "pnl", "fills",
}

// RenderPositionsCSV renders every position of res as CSV with six decimals,
// in first-seen order.
func RenderPositionsCSV(res *domain.SimulationResult) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(positionsHeader); err != nil {
		return "", err
	}
	for _, pos := range res.Positions {
		exit := ""
		if pos.ExitPrice != nil {
			exit = formatFloat(*pos.ExitPrice)
		}
		record := []string{
			pos.Market,
			pos.Outcome,
			pos.Asset,
			strconv.FormatBool(pos.Closed),
			formatFloat(pos.SharesHeld),
			formatFloat(pos.EntryPrice),
			exit,
			formatFloat(pos.Invested),
			formatFloat(pos.CurrentValue),
			formatFloat(pos.PnL),
			strconv.Itoa(len(pos.Trades)),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var fillsHeader = []string{
	"fill_id", "run_id", "timestamp", "market", "asset", "outcome", "seq", "side",
	"trader_price", "your_price", "size", "usdc_size", "slippage_pct", "slippage_cost",
}

// RenderFillsCSV renders a run's fill log as CSV with six decimals, in the
// order given.
func RenderFillsCSV(fills []*domain.FillRecord) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(fillsHeader); err != nil {
		return "", err
	}
	for _, f := range fills {
		record := []string{
			f.FillID,
			f.RunID,
			strconv.FormatInt(f.Timestamp, 10),
			f.Market,
			f.Asset,
			f.Outcome,
			strconv.Itoa(f.Sequence),
			string(f.Side),
			formatFloat(f.TraderPrice),
			formatFloat(f.YourPrice),
			formatFloat(f.Size),
			formatFloat(f.USDCSize),
			formatFloat(f.SlippagePercent),
			formatFloat(f.SlippageCost),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

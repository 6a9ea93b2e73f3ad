package ledger

import "math"

// ReferenceEntryPrice is the price at which the source trader is assumed to
// have acquired the lot being sold. The source's total holding is estimated
// as sellShares / ReferenceEntryPrice.
//
// This is an approximation kept for compatibility with stored results: it
// yields a constant fraction of ReferenceEntryPrice for every well-formed
// sell, whatever the trader's real entry price was.
const ReferenceEntryPrice = 0.1

// SellFraction estimates the fraction of the source trader's holding that a
// sell of usdcSize at price liquidates, clamped to [0, 1].
// Returns 0 for malformed trades.
func SellFraction(usdcSize, price float64) float64 {
	sellShares := usdcSize / price
	if math.IsNaN(sellShares) || math.IsInf(sellShares, 0) || sellShares <= 0 {
		return 0
	}

	estimatedHolding := sellShares / ReferenceEntryPrice
	fraction := sellShares / estimatedHolding

	return math.Min(math.Max(fraction, 0), 1)
}

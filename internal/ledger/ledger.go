// Package ledger replays source trades against the copy trader's cash and
// positions.
package ledger

import (
	"math"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/execution"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/sizing"
)

// DustThreshold is the share count below which a position is closed.
const DustThreshold = 0.01

// UnknownMarket labels positions whose trades carry neither market nor asset.
const UnknownMarket = "Unknown market"

// SkipReason explains why a source trade was not copied.
type SkipReason string

// Skip reasons
const (
	SkipBelowMinimum        SkipReason = "below_minimum"
	SkipInsufficientCapital SkipReason = "insufficient_capital"
	SkipNoPosition          SkipReason = "no_open_position"
	SkipPositionClosed      SkipReason = "position_closed"
	SkipInvalidPrice        SkipReason = "invalid_price"
	SkipInvalidSize         SkipReason = "invalid_size"
	SkipUnknownSide         SkipReason = "unknown_side"
)

// Outcome describes what Apply did with one trade.
type Outcome struct {
	Copied      bool
	Skip        SkipReason   // set when Copied is false
	PositionKey string
	Fill        *domain.Fill // set when Copied is true
	Closed      bool         // the fill closed the position
}

// Stats are the running counters of a ledger.
type Stats struct {
	TotalTrades          int
	Copied               int
	Skipped              int
	TotalInvested        float64 // sum of BUY costs including fees
	TotalSlippageCost    float64
	TotalSlippagePercent float64 // sum over copied fills, for averaging
	SkipReasons          map[string]int
}

// FractionEstimator estimates the fraction of a position to liquidate for a
// source sell of usdcSize at price.
type FractionEstimator func(usdcSize, price float64) float64

// Option configures a Ledger.
type Option func(*Ledger)

// WithSellFraction replaces SellFraction as the sell estimator.
func WithSellFraction(fn FractionEstimator) Option {
	return func(l *Ledger) {
		l.sellFraction = fn
	}
}

// Ledger holds cash and positions for one simulation run.
// Not safe for concurrent use: trades must be applied in time order.
type Ledger struct {
	sizer        sizing.Sizer
	model        execution.Model
	sellFraction FractionEstimator

	cash      float64
	positions map[string]*domain.SimulatedPosition
	order     []string // position keys in first-seen order

	stats Stats
}

// New creates a ledger with startingCapital in cash.
func New(startingCapital float64, sizer sizing.Sizer, model execution.Model, opts ...Option) *Ledger {
	l := &Ledger{
		sizer:        sizer,
		model:        model,
		sellFraction: SellFraction,
		cash:         startingCapital,
		positions:    make(map[string]*domain.SimulatedPosition),
		stats:        Stats{SkipReasons: make(map[string]int)},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply processes one source trade.
func (l *Ledger) Apply(t domain.Trade) Outcome {
	l.stats.TotalTrades++

	var out Outcome
	switch {
	case !t.Side.Valid():
		out = Outcome{Skip: SkipUnknownSide, PositionKey: t.PositionKey()}
	case t.Side == domain.SideBuy:
		out = l.applyBuy(t)
	default:
		out = l.applySell(t)
	}

	if out.Copied {
		l.stats.Copied++
	} else {
		l.stats.Skipped++
		l.stats.SkipReasons[string(out.Skip)]++
	}
	return out
}

// applyBuy sizes the order, slips the price and opens or adds to a position.
func (l *Ledger) applyBuy(t domain.Trade) Outcome {
	key := t.PositionKey()
	if !validPrice(t.Price) {
		return Outcome{Skip: SkipInvalidPrice, PositionKey: key}
	}
	if pos, ok := l.positions[key]; ok && pos.Closed {
		return Outcome{Skip: SkipPositionClosed, PositionKey: key}
	}

	order := l.sizer.Size(t.USDCSize, l.cash)
	if order.BelowMinimum || order.FinalAmount == 0 {
		if order.Reason == sizing.ReasonInsufficientCapital {
			return Outcome{Skip: SkipInsufficientCapital, PositionKey: key}
		}
		return Outcome{Skip: SkipBelowMinimum, PositionKey: key}
	}
	orderSize := order.FinalAmount

	quote := l.model.Fill(t.Price, domain.SideBuy, orderSize)
	fee := l.model.Fee(orderSize)
	totalCost := orderSize + fee
	if totalCost > l.cash {
		return Outcome{Skip: SkipInsufficientCapital, PositionKey: key}
	}

	shares := orderSize / quote.YourPrice
	slippageCost := execution.SlippageCost(orderSize, quote.SlippagePercent)

	pos, ok := l.positions[key]
	if !ok {
		pos = &domain.SimulatedPosition{
			Market:     marketLabel(t),
			Outcome:    t.Outcome,
			Asset:      t.Asset,
			EntryPrice: quote.YourPrice,
		}
		l.positions[key] = pos
		l.order = append(l.order, key)
	}

	pos.SharesHeld += shares
	pos.Invested += totalCost
	pos.CurrentValue = pos.SharesHeld * quote.YourPrice

	fill := domain.Fill{
		Timestamp:       t.Timestamp,
		Side:            domain.SideBuy,
		TraderPrice:     t.Price,
		YourPrice:       quote.YourPrice,
		Size:            shares,
		USDCSize:        totalCost,
		SlippagePercent: quote.SlippagePercent,
		SlippageCost:    slippageCost,
	}
	pos.Trades = append(pos.Trades, fill)

	l.cash -= totalCost
	l.stats.TotalInvested += totalCost
	l.stats.TotalSlippageCost += slippageCost
	l.stats.TotalSlippagePercent += quote.SlippagePercent

	return Outcome{Copied: true, PositionKey: key, Fill: &fill}
}

// applySell liquidates the estimated fraction of an open position.
func (l *Ledger) applySell(t domain.Trade) Outcome {
	key := t.PositionKey()
	pos, ok := l.positions[key]
	if !ok {
		return Outcome{Skip: SkipNoPosition, PositionKey: key}
	}
	if pos.Closed {
		return Outcome{Skip: SkipPositionClosed, PositionKey: key}
	}
	if pos.SharesHeld <= 0 {
		return Outcome{Skip: SkipNoPosition, PositionKey: key}
	}
	if !validPrice(t.Price) {
		return Outcome{Skip: SkipInvalidPrice, PositionKey: key}
	}

	fraction := math.Min(l.sellFraction(t.USDCSize, t.Price), 1)
	if math.IsNaN(fraction) || fraction <= 0 {
		return Outcome{Skip: SkipInvalidSize, PositionKey: key}
	}

	sharesToSell := math.Min(pos.SharesHeld*fraction, pos.SharesHeld)

	// Slippage is driven by the notional at the trader's price.
	estimatedValue := sharesToSell * t.Price
	quote := l.model.Fill(t.Price, domain.SideSell, estimatedValue)
	sellAmount := sharesToSell * quote.YourPrice
	slippageCost := execution.SlippageCost(estimatedValue, quote.SlippagePercent)
	netProceeds := sellAmount - l.model.Fee(sellAmount)

	pos.SharesHeld -= sharesToSell
	if pos.SharesHeld < 0 {
		pos.SharesHeld = 0
	}
	pos.CurrentValue = pos.SharesHeld * quote.YourPrice
	exit := quote.YourPrice
	pos.ExitPrice = &exit

	fill := domain.Fill{
		Timestamp:       t.Timestamp,
		Side:            domain.SideSell,
		TraderPrice:     t.Price,
		YourPrice:       quote.YourPrice,
		Size:            sharesToSell,
		USDCSize:        netProceeds,
		SlippagePercent: quote.SlippagePercent,
		SlippageCost:    slippageCost,
	}
	pos.Trades = append(pos.Trades, fill)

	l.cash += netProceeds
	l.stats.TotalSlippageCost += slippageCost
	l.stats.TotalSlippagePercent += quote.SlippagePercent

	closed := false
	if pos.SharesHeld < DustThreshold {
		pos.Closed = true
		pos.PnL = pos.RealizedPnL()
		closed = true
	}

	return Outcome{Copied: true, PositionKey: key, Fill: &fill, Closed: closed}
}

// Cash returns the uninvested capital.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// Stats returns a copy of the running counters.
func (l *Ledger) Stats() Stats {
	s := l.stats
	s.SkipReasons = make(map[string]int, len(l.stats.SkipReasons))
	for k, v := range l.stats.SkipReasons {
		s.SkipReasons[k] = v
	}
	return s
}

// Position returns a copy of the position for key, or false if absent.
func (l *Ledger) Position(key string) (*domain.SimulatedPosition, bool) {
	pos, ok := l.positions[key]
	if !ok {
		return nil, false
	}
	return pos.Clone(), true
}

// Positions returns copies of all positions in first-seen order.
func (l *Ledger) Positions() []*domain.SimulatedPosition {
	out := make([]*domain.SimulatedPosition, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.positions[key].Clone())
	}
	return out
}

// marketLabel returns the trade's market, else its asset, else UnknownMarket.
func marketLabel(t domain.Trade) string {
	switch {
	case t.Market != "":
		return t.Market
	case t.Asset != "":
		return t.Asset
	default:
		return UnknownMarket
	}
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}

// Package execution models the cost of filling a copied order.
package execution

import (
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// Price bounds for a binary outcome token.
const (
	MaxPrice = 0.999
	MinPrice = 0.001
)

// Model is a linear slippage and flat fee model. All values are percents.
//
//	slippage% = BasePct + (orderUSD / 100) * PerHundredPct
type Model struct {
	BasePct       float64 // slippage applied to every order
	PerHundredPct float64 // additional slippage per $100 of order size
	FeePct        float64 // transaction fee on order notional
}

// NewModel creates a slippage model.
func NewModel(basePct, perHundredPct, feePct float64) Model {
	return Model{
		BasePct:       basePct,
		PerHundredPct: perHundredPct,
		FeePct:        feePct,
	}
}

// Quote is a simulated fill price.
type Quote struct {
	YourPrice       float64
	SlippagePercent float64
}

// Slippage returns the slippage percent for an order of orderUSD.
func (m Model) Slippage(orderUSD float64) float64 {
	return m.BasePct + (orderUSD/100)*m.PerHundredPct
}

// Fill returns the price the copy trader gets for an order of orderUSD at the
// trader's price. BUY pays up (capped at MaxPrice), SELL receives less
// (floored at MinPrice).
func (m Model) Fill(traderPrice float64, side domain.Side, orderUSD float64) Quote {
	s := m.Slippage(orderUSD)

	var price float64
	switch side {
	case domain.SideSell:
		price = traderPrice * (1 - s/100)
	default:
		price = traderPrice * (1 + s/100)
	}

	return Quote{
		YourPrice:       clampPrice(price),
		SlippagePercent: s,
	}
}

// Fee returns the transaction fee on amount.
func (m Model) Fee(amount float64) float64 {
	return amount * (m.FeePct / 100)
}

// SlippageCost returns the USD cost of slippagePct on notional.
func SlippageCost(notional, slippagePct float64) float64 {
	return notional * (slippagePct / 100)
}

func clampPrice(p float64) float64 {
	if p > MaxPrice {
		return MaxPrice
	}
	if p < MinPrice {
		return MinPrice
	}
	return p
}

package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/observability"
)

// DefaultMarketWSURL is the CLOB market channel endpoint.
const DefaultMarketWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// Market channel event types.
const (
	EventBook           = "book"
	EventLastTradePrice = "last_trade_price"
	EventPriceChange    = "price_change"
)

// StreamConfig configures MarketStream behavior.
type StreamConfig struct {
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
}

// DefaultStreamConfig returns default market stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     10 * time.Second,
	}
}

// MarketStream reads live prices from the CLOB market channel.
type MarketStream struct {
	endpoint string
	config   StreamConfig
}

// NewMarketStream creates a stream for endpoint. An empty endpoint uses
// DefaultMarketWSURL.
func NewMarketStream(endpoint string, config *StreamConfig) *MarketStream {
	if endpoint == "" {
		endpoint = DefaultMarketWSURL
	}
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	return &MarketStream{endpoint: endpoint, config: cfg}
}

type subscribeRequest struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type priceChange struct {
	AssetID string `json:"asset_id"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

type marketEvent struct {
	EventType    string        `json:"event_type"`
	AssetID      string        `json:"asset_id"`
	Price        string        `json:"price"`
	Bids         []bookLevel   `json:"bids"`
	Asks         []bookLevel   `json:"asks"`
	PriceChanges []priceChange `json:"price_changes"`
}

// Collect subscribes to assets and gathers a price per asset until every
// asset has traded, window elapses, or ctx is done. Last trade prices win
// over book midpoints. On a read error the prices gathered so far are
// returned together with the error.
func (s *MarketStream) Collect(ctx context.Context, assets []string, window time.Duration) (map[string]float64, error) {
	prices := make(map[string]float64)
	if len(assets) == 0 {
		return prices, nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: s.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{AssetsIDs: assets, Type: "market"}); err != nil {
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	wanted := make(map[string]bool, len(assets))
	for _, a := range assets {
		wanted[a] = true
	}
	traded := make(map[string]bool)

	messages := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case messages <- msg:
			case <-done:
				return
			}
		}
	}()

	timer := time.NewTimer(window)
	defer timer.Stop()
	ping := time.NewTicker(s.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return prices, nil
		case <-ping.C:
			deadline := time.Now().Add(s.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return prices, fmt.Errorf("write ping: %w", err)
			}
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return prices, nil
			}
			return prices, fmt.Errorf("read market stream: %w", err)
		case msg := <-messages:
			for _, ev := range decodeEvents(msg) {
				observability.RecordStreamMessage(ev.EventType)
				applyEvent(ev, wanted, traded, prices)
			}
			if len(prices) == len(wanted) && len(traded) == len(wanted) {
				return prices, nil
			}
		}
	}
}

// decodeEvents accepts both a single event object and an array of events.
func decodeEvents(msg []byte) []marketEvent {
	var events []marketEvent
	if err := json.Unmarshal(msg, &events); err == nil {
		return events
	}
	var ev marketEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return nil
	}
	return []marketEvent{ev}
}

func applyEvent(ev marketEvent, wanted, traded map[string]bool, prices map[string]float64) {
	switch ev.EventType {
	case EventLastTradePrice:
		if !wanted[ev.AssetID] {
			return
		}
		if p, err := parsePrice(ev.Price); err == nil {
			prices[ev.AssetID] = p
			traded[ev.AssetID] = true
		}
	case EventBook:
		if !wanted[ev.AssetID] || traded[ev.AssetID] {
			return
		}
		if mid, ok := bookMid(ev.Bids, ev.Asks); ok {
			prices[ev.AssetID] = mid
		}
	case EventPriceChange:
		for _, pc := range ev.PriceChanges {
			if !wanted[pc.AssetID] || traded[pc.AssetID] {
				continue
			}
			bid, errBid := parsePrice(pc.BestBid)
			ask, errAsk := parsePrice(pc.BestAsk)
			if errBid == nil && errAsk == nil {
				prices[pc.AssetID] = (bid + ask) / 2
			}
		}
	}
}

// bookMid returns the midpoint of the best bid and best ask.
func bookMid(bids, asks []bookLevel) (float64, bool) {
	bestBid, okBid := bestLevel(bids, func(a, b float64) bool { return a > b })
	bestAsk, okAsk := bestLevel(asks, func(a, b float64) bool { return a < b })
	if !okBid || !okAsk {
		return 0, false
	}
	return (bestBid + bestAsk) / 2, true
}

func bestLevel(levels []bookLevel, better func(a, b float64) bool) (float64, bool) {
	var best float64
	found := false
	for _, l := range levels {
		p, err := parsePrice(l.Price)
		if err != nil {
			continue
		}
		if !found || better(p, best) {
			best = p
			found = true
		}
	}
	return best, found
}

var errPriceOutOfRange = errors.New("price out of range")

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if p < 0 || p > 1 {
		return 0, errPriceOutOfRange
	}
	return p, nil
}

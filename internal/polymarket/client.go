// Package polymarket provides clients for the Polymarket data API and the
// CLOB market websocket.
package polymarket

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
)

// Client errors
var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrRateLimited      = errors.New("rate limited (429)")
)

// DataClient reads trader activity and positions.
type DataClient interface {
	// Activity returns one page of the trader's TRADE activity, newest first.
	Activity(ctx context.Context, address string, limit, offset int) ([]domain.Trade, error)

	// Positions returns the trader's current positions.
	Positions(ctx context.Context, address string) ([]domain.LivePosition, error)
}

// StatusError carries the HTTP status of a failed request.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Package broker implements the abstract Broker Adapter of §6, with a
// demo adapter and a LongPort-backed one for real trading. Trading-day
// gating is enforced here: on a non-trading day an order soft-fails into a
// pending Fill. The time of day is not checked, so an order on a trading
// day outside exchange hours is not gated.
package broker

import (
	"context"
	"time"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// Mode is the trading mode a fill is executed under.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeReal Mode = "real"
)

// Fill is the result of a buy/sell call.
type Fill struct {
	Success   bool
	FillPrice float64
	Quantity  float64
	Timestamp time.Time
	Pending   bool // true when the adapter soft-failed out of market hours
}

// PortfolioRow is one line of the broker's authoritative view of open
// positions, used to reconcile against Trading Memory's Holdings.
type PortfolioRow struct {
	Ticker   models.Ticker
	Quantity float64
	AvgPrice float64
	Value    float64
}

// Adapter is the abstract Broker Adapter boundary.
type Adapter interface {
	Quote(ctx context.Context, ticker models.Ticker) (float64, error)
	Buy(ctx context.Context, ticker models.Ticker, amount float64, mode Mode) (Fill, error)
	Sell(ctx context.Context, ticker models.Ticker, quantity float64, mode Mode) (Fill, error)
	Portfolio(ctx context.Context) ([]PortfolioRow, error)
}

// marketHoursGate returns a pending Fill when calendar reports now as not a
// trading day for the ticker's realm; callers short-circuit on ok=false.
// Only the date is checked, not the time of day.
func marketHoursGate(calendar market.Calendar, now time.Time) (Fill, bool) {
	if calendar.IsTradingDay(now) {
		return Fill{}, true
	}
	return Fill{Pending: true}, false
}

func unsupportedMode(mode Mode) error {
	if mode != ModeDemo && mode != ModeReal {
		return errs.ConfigError("unsupported trading mode: "+string(mode), nil)
	}
	return nil
}

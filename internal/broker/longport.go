package broker

import (
	"context"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/trade"
	"github.com/shopspring/decimal"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// decimalFromFloat/floatFromDecimal bridge this package's float64 amounts
// to the decimal.Decimal quantity/price fields LongPort's trade API uses.
func decimalFromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }
func floatFromDecimal(d decimal.Decimal) float64 { v, _ := d.Float64(); return v }

// LongPortBroker routes real orders through LongPort's trade API, for
// TradingMode=real. Grounded on the same config-key dial the KR realm's
// quote client uses.
type LongPortBroker struct {
	tradeCtx *trade.TradeContext
	calendar market.Calendar
}

func NewLongPortBroker(appKey, appSecret, accessToken string, calendar market.Calendar) (*LongPortBroker, error) {
	cfg, err := lpconfig.New(lpconfig.WithConfigKey(appKey, appSecret, accessToken))
	if err != nil {
		return nil, errs.ConfigError("longport broker config", err)
	}
	tradeCtx, err := trade.NewFromCfg(cfg)
	if err != nil {
		return nil, errs.Transient("dial longport trade context", err)
	}
	return &LongPortBroker{tradeCtx: tradeCtx, calendar: calendar}, nil
}

func (b *LongPortBroker) Quote(ctx context.Context, ticker models.Ticker) (float64, error) {
	return 0, errs.ConfigError("quote is served by the market data client, not the broker adapter", nil)
}

func (b *LongPortBroker) Buy(ctx context.Context, ticker models.Ticker, amount float64, mode Mode) (Fill, error) {
	if err := unsupportedMode(mode); err != nil {
		return Fill{}, err
	}
	if fill, ok := marketHoursGate(b.calendar, time.Now()); !ok {
		return fill, nil
	}
	return b.submit(ctx, ticker, trade.OrderSideBuy, amount)
}

func (b *LongPortBroker) Sell(ctx context.Context, ticker models.Ticker, quantity float64, mode Mode) (Fill, error) {
	if err := unsupportedMode(mode); err != nil {
		return Fill{}, err
	}
	if fill, ok := marketHoursGate(b.calendar, time.Now()); !ok {
		return fill, nil
	}
	return b.submit(ctx, ticker, trade.OrderSideSell, quantity)
}

// submit issues a market order for quantity shares of ticker. LongPort's
// SubmitOrder is asynchronous; the returned Fill reports acceptance, not a
// confirmed execution price.
func (b *LongPortBroker) submit(ctx context.Context, ticker models.Ticker, side trade.OrderSide, quantity float64) (Fill, error) {
	req := &trade.SubmitOrder{
		Symbol:        ticker.Code,
		OrderType:     trade.OrderTypeMO,
		Side:          side,
		SubmittedQuantity: decimalFromFloat(quantity),
		TimeInForce:   trade.TimeInForceDay,
	}
	resp, err := b.tradeCtx.SubmitOrder(ctx, req)
	if err != nil {
		return Fill{}, errs.Transient(fmt.Sprintf("submit %s order for %s", side, ticker), err)
	}
	_ = resp
	return Fill{Success: true, Quantity: quantity, Timestamp: time.Now()}, nil
}

func (b *LongPortBroker) Portfolio(ctx context.Context) ([]PortfolioRow, error) {
	positions, err := b.tradeCtx.StockPositions(ctx)
	if err != nil {
		return nil, errs.Transient("fetch longport stock positions", err)
	}
	var out []PortfolioRow
	for _, channel := range positions.Channels {
		for _, p := range channel.Positions {
			out = append(out, PortfolioRow{
				Ticker:   models.Ticker{Realm: models.RealmKR, Code: p.Symbol},
				Quantity: floatFromDecimal(p.Quantity),
				AvgPrice: floatFromDecimal(p.CostPrice),
			})
		}
	}
	return out, nil
}

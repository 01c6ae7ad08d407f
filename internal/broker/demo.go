package broker

import (
	"context"
	"time"

	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// DemoBroker simulates fills at the current snapshot price, with no real
// order routing. Used for TradingMode=demo, the default.
type DemoBroker struct {
	client   market.Client
	holdings map[models.Ticker]PortfolioRow
}

func NewDemoBroker(client market.Client) *DemoBroker {
	return &DemoBroker{client: client, holdings: make(map[models.Ticker]PortfolioRow)}
}

func (d *DemoBroker) Quote(ctx context.Context, ticker models.Ticker) (float64, error) {
	tradingDay := d.client.Calendar().NearestPastTradingDay(time.Now()).Format("2006-01-02")
	snaps, err := d.client.Snapshot(ctx, tradingDay)
	if err != nil {
		return 0, err
	}
	snap, ok := snaps[ticker]
	if !ok {
		return 0, nil
	}
	return snap.Close, nil
}

func (d *DemoBroker) Buy(ctx context.Context, ticker models.Ticker, amount float64, mode Mode) (Fill, error) {
	if err := unsupportedMode(mode); err != nil {
		return Fill{}, err
	}
	if fill, ok := marketHoursGate(d.client.Calendar(), time.Now()); !ok {
		return fill, nil
	}
	price, err := d.Quote(ctx, ticker)
	if err != nil || price == 0 {
		return Fill{Success: false}, err
	}
	qty := amount / price
	row := d.holdings[ticker]
	newQty := row.Quantity + qty
	row.AvgPrice = (row.AvgPrice*row.Quantity + price*qty) / newQty
	row.Quantity = newQty
	row.Ticker = ticker
	row.Value = row.Quantity * price
	d.holdings[ticker] = row

	return Fill{Success: true, FillPrice: price, Quantity: qty, Timestamp: time.Now()}, nil
}

func (d *DemoBroker) Sell(ctx context.Context, ticker models.Ticker, quantity float64, mode Mode) (Fill, error) {
	if err := unsupportedMode(mode); err != nil {
		return Fill{}, err
	}
	if fill, ok := marketHoursGate(d.client.Calendar(), time.Now()); !ok {
		return fill, nil
	}
	price, err := d.Quote(ctx, ticker)
	if err != nil || price == 0 {
		return Fill{Success: false}, err
	}
	row, ok := d.holdings[ticker]
	if !ok {
		return Fill{Success: false}, nil
	}
	row.Quantity -= quantity
	if row.Quantity <= 0 {
		delete(d.holdings, ticker)
	} else {
		row.Value = row.Quantity * price
		d.holdings[ticker] = row
	}

	return Fill{Success: true, FillPrice: price, Quantity: quantity, Timestamp: time.Now()}, nil
}

func (d *DemoBroker) Portfolio(ctx context.Context) ([]PortfolioRow, error) {
	out := make([]PortfolioRow, 0, len(d.holdings))
	for _, row := range d.holdings {
		out = append(out, row)
	}
	return out, nil
}

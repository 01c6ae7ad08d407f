// Package us is the US realm's Market Data Client backend, implemented over
// piquette/finance-go's Yahoo-Finance-style quote/chart/equity clients.
package us

import (
	"context"
	"fmt"
	"time"

	fchart "github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	fequity "github.com/piquette/finance-go/equity"
	fquote "github.com/piquette/finance-go/quote"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// MinTradedValue and MinMarketCap are the US realm's absolute-filter floors
// from §4.2 step 1 ($100M traded value, $5B market cap).
const (
	MinTradedValue = 100_000_000.0
	MinMarketCap   = 5_000_000_000.0
)

// Client implements market.Client over NYSE/NASDAQ tickers.
type Client struct {
	universe []string
	calendar *market.WeekdayCalendar
}

func New(universe []string) *Client {
	return &Client{universe: universe, calendar: market.NewWeekdayCalendar(usHolidays)}
}

func (c *Client) Realm() models.Realm      { return models.RealmUS }
func (c *Client) Calendar() market.Calendar { return usCalendar{c.calendar} }

type usCalendar struct{ w *market.WeekdayCalendar }

func (u usCalendar) IsTradingDay(d time.Time) bool              { return u.w.IsTradingDay(d) }
func (u usCalendar) NearestPastTradingDay(d time.Time) time.Time { return u.w.NearestPastTradingDay(d) }

// usHolidays is the list of NYSE full-day closures; it is empty, so every
// weekday counts as a US trading day.
var usHolidays = []string{}

func (c *Client) snapshotAt(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	out := make(map[models.Ticker]models.Snapshot, len(c.universe))
	for _, sym := range c.universe {
		var q *fquote.Quote
		err := market.WithRetry(ctx, 2, func(context.Context) error {
			res, qerr := fquote.Get(sym)
			if qerr != nil {
				return errs.Transient(fmt.Sprintf("finance-go quote %s", sym), qerr)
			}
			if res == nil {
				return errs.Permanent(fmt.Sprintf("finance-go quote %s empty", sym), nil)
			}
			q = res
			return nil
		})
		if err != nil {
			if errs.Is(err, errs.KindPermanentUpstream) {
				continue // absent ticker => absent key, never a partial row
			}
			return nil, err
		}

		tk := models.Ticker{Realm: models.RealmUS, Code: sym}
		out[tk] = models.Snapshot{
			Ticker:      tk,
			TradingDay:  tradingDay,
			Open:        q.RegularMarketOpen,
			High:        q.RegularMarketDayHigh,
			Low:         q.RegularMarketDayLow,
			Close:       q.RegularMarketPrice,
			Volume:      int64(q.RegularMarketVolume),
			TradedValue: q.RegularMarketPrice * float64(q.RegularMarketVolume),
			MarketCap:   q.MarketCap,
			PrevClose:   q.RegularMarketPreviousClose,
		}
	}
	return out, nil
}

func (c *Client) Snapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	return c.snapshotAt(ctx, tradingDay)
}

func (c *Client) PreviousSnapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	prevDay := c.calendar.NearestPastTradingDay(mustParseDay(tradingDay).AddDate(0, 0, -1))
	return c.snapshotAt(ctx, prevDay.Format("2006-01-02"))
}

func (c *Client) OHLCV(ctx context.Context, ticker models.Ticker, start, end string) ([]models.Bar, error) {
	startT := mustParseDay(start)
	endT := time.Now()
	if end != "" {
		endT = mustParseDay(end)
	}

	var bars []models.Bar
	err := market.WithRetry(ctx, 2, func(context.Context) error {
		iter := fchart.Get(&fchart.Params{
			Symbol:   ticker.Code,
			Start:    &datetime.Datetime{Year: startT.Year(), Month: int(startT.Month()), Day: startT.Day()},
			End:      &datetime.Datetime{Year: endT.Year(), Month: int(endT.Month()), Day: endT.Day()},
			Interval: datetime.OneDay,
		})
		bars = bars[:0]
		for iter.Next() {
			b := iter.Bar()
			o, _ := b.Open.Float64()
			h, _ := b.High.Float64()
			l, _ := b.Low.Float64()
			cl, _ := b.Close.Float64()
			bars = append(bars, models.Bar{
				Ticker: ticker,
				Date:   time.Unix(int64(b.Timestamp), 0).Format("2006-01-02"),
				Open:   o, High: h, Low: l, Close: cl,
				Volume: int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return errs.Transient("finance-go chart", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (c *Client) CompanyMeta(ctx context.Context, ticker models.Ticker) (models.CompanyMeta, error) {
	var eq *fequity.Equity
	err := market.WithRetry(ctx, 2, func(context.Context) error {
		res, qerr := fequity.Get(ticker.Code)
		if qerr != nil {
			return errs.Transient("finance-go equity", qerr)
		}
		eq = res
		return nil
	})
	if err != nil {
		return models.CompanyMeta{}, err
	}
	if eq == nil {
		return models.CompanyMeta{}, errs.UnknownTicker(fmt.Sprintf("unknown US ticker %s", ticker.Code), nil)
	}
	return models.CompanyMeta{
		Ticker:          ticker,
		Name:            eq.ShortName,
		Sector:          eq.Sector,
		Industry:        eq.Industry,
		MarketCap:       eq.MarketCap,
		ListingExchange: eq.Exchange,
	}, nil
}

func (c *Client) InstitutionalHolders(ctx context.Context, ticker models.Ticker) ([]models.Holder, error) {
	// finance-go does not surface a holders endpoint; the US realm returns
	// an empty (valid per §4.1) list until a dedicated filings feed is
	// wired in.
	return []models.Holder{}, nil
}

func mustParseDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Now()
	}
	return t
}

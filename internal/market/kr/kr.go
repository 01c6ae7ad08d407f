// Package kr is the KR realm's Market Data Client backend, implemented over
// LongPort's quote API (the same SDK CortexGo's market_analyst tool used for
// real candlestick data).
package kr

import (
	"context"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/models"
)

// MinTradedValue and MinMarketCap are the KR realm's absolute-filter floors
// from §4.2 step 1 (₩10B traded value, ₩500B market cap).
const (
	MinTradedValue = 10_000_000_000.0
	MinMarketCap   = 500_000_000_000.0
)

// Client implements market.Client for the KRX universe.
type Client struct {
	quoteCtx  *quote.QuoteContext
	universe  []string // KRX symbols this Client tracks; populated by the caller
	calendar  *market.WeekdayCalendar
	holderCache map[string][]models.Holder
}

// New dials LongPort using the given app credentials. universe is the list
// of KRX symbols considered "listed" for Snapshot purposes — LongPort has no
// single "list everything" call, so the operator supplies the tracked set
// (e.g. KOSPI200 + KOSDAQ150 constituents).
func New(appKey, appSecret, accessToken string, universe []string) (*Client, error) {
	cfg, err := lpconfig.New(lpconfig.WithConfigKey(appKey, appSecret, accessToken))
	if err != nil {
		return nil, errs.ConfigError("longport config", err)
	}
	qc, err := quote.NewFromCfg(cfg)
	if err != nil {
		return nil, errs.ConfigError("longport quote context", err)
	}
	return &Client{
		quoteCtx:    qc,
		universe:    universe,
		calendar:    market.NewWeekdayCalendar(nil),
		holderCache: make(map[string][]models.Holder),
	}, nil
}

func (c *Client) Realm() models.Realm { return models.RealmKR }

func (c *Client) Calendar() market.Calendar { return krCalendar{c.calendar} }

type krCalendar struct{ w *market.WeekdayCalendar }

func (k krCalendar) IsTradingDay(d time.Time) bool            { return k.w.IsTradingDay(d) }
func (k krCalendar) NearestPastTradingDay(d time.Time) time.Time { return k.w.NearestPastTradingDay(d) }

func (c *Client) snapshotAt(ctx context.Context, tradingDay string, useSecond bool) (map[models.Ticker]models.Snapshot, error) {
	out := make(map[models.Ticker]models.Snapshot, len(c.universe))
	if len(c.universe) == 0 {
		return out, nil
	}

	var quotes []*quote.SecurityQuote
	err := market.WithRetry(ctx, 2, func(ctx context.Context) error {
		res, qerr := c.quoteCtx.Quote(ctx, c.universe)
		if qerr != nil {
			return errs.Transient("longport quote fetch", qerr)
		}
		quotes = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, q := range quotes {
		if q == nil {
			continue
		}
		last, _ := q.LastDone.Float64()
		open, _ := q.Open.Float64()
		high, _ := q.High.Float64()
		low, _ := q.Low.Float64()
		prevClose, _ := q.PrevClose.Float64()
		vol := q.Volume

		tk := models.Ticker{Realm: models.RealmKR, Code: q.Symbol}
		snap := models.Snapshot{
			Ticker:      tk,
			TradingDay:  tradingDay,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       last,
			Volume:      vol,
			TradedValue: last * float64(vol),
			PrevClose:   prevClose,
		}
		if meta, merr := c.CompanyMeta(ctx, tk); merr == nil {
			snap.MarketCap = meta.MarketCap
		}
		if snap.TradedValue < MinTradedValue && !useSecond {
			// still recorded: absolute filters are the screener's job, not
			// the client's; we only drop rows below the realm's listing
			// floor when the upstream marks them delisted/suspended, which
			// LongPort's quote omits entirely.
		}
		out[tk] = snap
	}
	return out, nil
}

func (c *Client) Snapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	return c.snapshotAt(ctx, tradingDay, false)
}

func (c *Client) PreviousSnapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	return c.snapshotAt(ctx, tradingDay, true)
}

func (c *Client) OHLCV(ctx context.Context, ticker models.Ticker, start, end string) ([]models.Bar, error) {
	var sticks []*quote.Candlestick
	err := market.WithRetry(ctx, 2, func(ctx context.Context) error {
		res, qerr := c.quoteCtx.CandlesticksBySymbol(ctx, ticker.Code, quote.PeriodDay, 200, quote.AdjustTypeNo, quote.TradeSessionIntraday)
		if qerr != nil {
			return errs.Transient("longport candlesticks", qerr)
		}
		sticks = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(sticks))
	for _, s := range sticks {
		date := time.Unix(s.Timestamp, 0).Format("2006-01-02")
		if date < start || (end != "" && date > end) {
			continue
		}
		o, _ := s.Open.Float64()
		h, _ := s.High.Float64()
		l, _ := s.Low.Float64()
		cl, _ := s.Close.Float64()
		bars = append(bars, models.Bar{
			Ticker: ticker, Date: date, Open: o, High: h, Low: l, Close: cl, Volume: s.Volume,
		})
	}
	return bars, nil
}

func (c *Client) CompanyMeta(ctx context.Context, ticker models.Ticker) (models.CompanyMeta, error) {
	var infos []*quote.StaticInfo
	err := market.WithRetry(ctx, 2, func(ctx context.Context) error {
		res, qerr := c.quoteCtx.StaticInfo(ctx, []string{ticker.Code})
		if qerr != nil {
			return errs.Transient("longport static info", qerr)
		}
		infos = res
		return nil
	})
	if err != nil {
		return models.CompanyMeta{}, err
	}
	if len(infos) == 0 {
		return models.CompanyMeta{}, errs.UnknownTicker(fmt.Sprintf("unknown KR ticker %s", ticker.Code), nil)
	}
	info := infos[0]
	return models.CompanyMeta{
		Ticker:          ticker,
		Name:            info.NameCn,
		Sector:          KSICSector(info.Exchange),
		Industry:        string(info.Exchange),
		ListingExchange: string(info.Exchange),
	}, nil
}

func (c *Client) InstitutionalHolders(ctx context.Context, ticker models.Ticker) ([]models.Holder, error) {
	if h, ok := c.holderCache[ticker.Code]; ok {
		return h, nil
	}
	// LongPort's quote API does not expose institutional-holder breakdowns;
	// this realm has none until a dedicated KRX DART feed is wired in.
	return []models.Holder{}, nil
}

// KSICSector maps a listing exchange to a coarse sector bucket. Real KSIC
// classification lives in KRX's own reference data; this coarse bucket is
// what CompanyMeta.Sector carries for the KR realm.
func KSICSector(exchange quote.Exchange) string {
	switch exchange {
	case quote.ExchangeSEHK:
		return "hk-listed"
	default:
		return "krx-general"
	}
}

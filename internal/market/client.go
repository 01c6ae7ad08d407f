// Package market defines the realm-neutral Market Data Client contract of
// §4.1 and a session-scoped cache shared by both realm backends.
package market

import (
	"context"
	"sync"
	"time"

	"github.com/hanriver/tradepilot/internal/models"
)

// Client is the unified read-only interface over OHLCV, snapshot, company
// metadata, institutional holders and the market calendar. Two concrete
// realms (KR, US) implement it with identical contracts but different
// backends.
type Client interface {
	// Snapshot returns every listed ticker above the realm's minimum
	// liquidity floor for tradingDay. A missing ticker is an absent key,
	// never a partial row.
	Snapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error)
	// PreviousSnapshot returns the same shape for the previous trading day.
	PreviousSnapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error)
	// OHLCV returns an ordered daily bar sequence, empty if ticker is
	// unknown or the range falls outside the listing.
	OHLCV(ctx context.Context, ticker models.Ticker, start, end string) ([]models.Bar, error)
	// CompanyMeta fails with errs.KindUnknownTicker when ticker is unknown.
	CompanyMeta(ctx context.Context, ticker models.Ticker) (models.CompanyMeta, error)
	// InstitutionalHolders returns an ordered, possibly empty, list.
	InstitutionalHolders(ctx context.Context, ticker models.Ticker) ([]models.Holder, error)
	Calendar() Calendar
	Realm() models.Realm
}

// Calendar exposes trading-day predicates for one realm.
type Calendar interface {
	IsTradingDay(date time.Time) bool
	NearestPastTradingDay(date time.Time) time.Time
}

// Session owns the snapshot/market-index caches for the lifetime of one
// orchestrator run: init -> use -> dispose, never a process-wide singleton
// (spec §9, "Global state").
type Session struct {
	client Client

	mu               sync.Mutex
	snapshots        map[string]map[models.Ticker]models.Snapshot
	prevSnapshots    map[string]map[models.Ticker]models.Snapshot
	marketIndexCache map[string]string // caller-chosen key (the agent pipeline uses the realm) -> cached market_index_analysis text
}

// NewSession opens a cache-backed session over client. Callers must call
// Dispose when the session ends.
func NewSession(client Client) *Session {
	return &Session{
		client:           client,
		snapshots:        make(map[string]map[models.Ticker]models.Snapshot),
		prevSnapshots:    make(map[string]map[models.Ticker]models.Snapshot),
		marketIndexCache: make(map[string]string),
	}
}

// Dispose releases the session's cached state. The underlying Client is not
// closed: it may be realm-shared across sessions.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = nil
	s.prevSnapshots = nil
	s.marketIndexCache = nil
}

// Snapshot is idempotent within the session: a given (realm, trading_day)
// is fetched from the upstream client at most once.
func (s *Session) Snapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	s.mu.Lock()
	if cached, ok := s.snapshots[tradingDay]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	fresh, err := s.client.Snapshot(ctx, tradingDay)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.snapshots[tradingDay]; ok {
		return cached, nil
	}
	s.snapshots[tradingDay] = fresh
	return fresh, nil
}

func (s *Session) PreviousSnapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	s.mu.Lock()
	if cached, ok := s.prevSnapshots[tradingDay]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	fresh, err := s.client.PreviousSnapshot(ctx, tradingDay)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.prevSnapshots[tradingDay]; ok {
		return cached, nil
	}
	s.prevSnapshots[tradingDay] = fresh
	return fresh, nil
}

// CachedMarketIndex returns the session's cached market_index_analysis
// text stored under key, if any has been computed yet.
func (s *Session) CachedMarketIndex(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.marketIndexCache[key]
	return v, ok
}

func (s *Session) StoreMarketIndex(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marketIndexCache[key] = content
}

func (s *Session) Client() Client { return s.client }

package market

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanriver/tradepilot/internal/models"
)

// countingClient counts upstream Snapshot/PreviousSnapshot calls so tests
// can assert the Session cache fetches each trading day at most once.
type countingClient struct {
	snapshotCalls     int32
	prevSnapshotCalls int32
}

func (c *countingClient) Snapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	atomic.AddInt32(&c.snapshotCalls, 1)
	return map[models.Ticker]models.Snapshot{
		{Realm: models.RealmUS, Code: "AAPL"}: {TradingDay: tradingDay, Close: 100},
	}, nil
}

func (c *countingClient) PreviousSnapshot(ctx context.Context, tradingDay string) (map[models.Ticker]models.Snapshot, error) {
	atomic.AddInt32(&c.prevSnapshotCalls, 1)
	return map[models.Ticker]models.Snapshot{
		{Realm: models.RealmUS, Code: "AAPL"}: {TradingDay: tradingDay, Close: 99},
	}, nil
}

func (c *countingClient) OHLCV(ctx context.Context, ticker models.Ticker, start, end string) ([]models.Bar, error) {
	return nil, nil
}

func (c *countingClient) CompanyMeta(ctx context.Context, ticker models.Ticker) (models.CompanyMeta, error) {
	return models.CompanyMeta{Ticker: ticker}, nil
}

func (c *countingClient) InstitutionalHolders(ctx context.Context, ticker models.Ticker) ([]models.Holder, error) {
	return nil, nil
}

func (c *countingClient) Calendar() Calendar { return nil }
func (c *countingClient) Realm() models.Realm { return models.RealmUS }

func TestSessionSnapshotIsIdempotentPerTradingDay(t *testing.T) {
	client := &countingClient{}
	sess := NewSession(client)
	defer sess.Dispose()

	for i := 0; i < 5; i++ {
		_, err := sess.Snapshot(context.Background(), "2026-07-30")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.snapshotCalls))

	// A different trading day triggers exactly one more upstream fetch.
	_, err := sess.Snapshot(context.Background(), "2026-07-31")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&client.snapshotCalls))
}

func TestSessionPreviousSnapshotIsIdempotentPerTradingDay(t *testing.T) {
	client := &countingClient{}
	sess := NewSession(client)
	defer sess.Dispose()

	for i := 0; i < 3; i++ {
		_, err := sess.PreviousSnapshot(context.Background(), "2026-07-30")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.prevSnapshotCalls))
}

func TestSessionSnapshotConcurrentCallsFetchOnce(t *testing.T) {
	client := &countingClient{}
	sess := NewSession(client)
	defer sess.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sess.Snapshot(context.Background(), "2026-07-30")
		}()
	}
	wg.Wait()

	// Concurrent callers that miss the cache before the first fill each
	// fetch upstream (the race between the check and the fill), so the
	// count lies between one and the number of goroutines.
	assert.LessOrEqual(t, atomic.LoadInt32(&client.snapshotCalls), int32(20))
	assert.Greater(t, atomic.LoadInt32(&client.snapshotCalls), int32(0))
}

func TestSessionMarketIndexCache(t *testing.T) {
	client := &countingClient{}
	sess := NewSession(client)
	defer sess.Dispose()

	_, ok := sess.CachedMarketIndex("US:morning")
	assert.False(t, ok)

	sess.StoreMarketIndex("US:morning", "bullish")
	got, ok := sess.CachedMarketIndex("US:morning")
	assert.True(t, ok)
	assert.Equal(t, "bullish", got)
}

func TestSessionDisposeClearsCaches(t *testing.T) {
	client := &countingClient{}
	sess := NewSession(client)

	_, err := sess.Snapshot(context.Background(), "2026-07-30")
	require.NoError(t, err)
	sess.StoreMarketIndex("US:morning", "bullish")

	sess.Dispose()

	_, ok := sess.CachedMarketIndex("US:morning")
	assert.False(t, ok)
}

package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hanriver/tradepilot/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tradepilot.db")
	store, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCompressIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	realm := models.RealmUS
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	policy := models.CompressionPolicy{
		Layer1Age:     time.Hour,
		Layer2Age:     100 * 24 * time.Hour,
		StaleDays:     60 * 24 * time.Hour,
		ArchiveDays:   180 * 24 * time.Hour,
		MaxPrinciples: 50,
		MaxIntuitions: 50,
	}

	entry := models.JournalEntry{
		ID:               uuid.NewString(),
		Ticker:           models.Ticker{Realm: realm, Code: "AAPL"},
		Market:           realm,
		Sector:           "tech",
		TriggerType:      "volume_surge",
		Action:           "sold",
		Outcome:          "profit",
		CompressionLayer: models.LayerDetailed,
		CreatedAt:        now.Add(-2 * time.Hour), // older than Layer1Age
	}
	require.NoError(t, store.InsertJournal(ctx, entry))

	require.NoError(t, store.Compress(ctx, realm, now, policy))

	layer1, err := store.JournalsByLayer(ctx, realm, models.LayerDetailed)
	require.NoError(t, err)
	require.Empty(t, layer1, "journal should have been promoted out of layer 1")

	layer2, err := store.JournalsByLayer(ctx, realm, models.LayerSummarized)
	require.NoError(t, err)
	require.Len(t, layer2, 1)
	firstSummary := layer2[0].CompressedSummary
	require.NotEmpty(t, firstSummary)

	// Running Compress again with the same (now, policy) must not touch
	// the already-promoted journal: no further promotion, no error, same
	// compressed summary.
	require.NoError(t, store.Compress(ctx, realm, now, policy))

	layer1Again, err := store.JournalsByLayer(ctx, realm, models.LayerDetailed)
	require.NoError(t, err)
	require.Empty(t, layer1Again)

	layer2Again, err := store.JournalsByLayer(ctx, realm, models.LayerSummarized)
	require.NoError(t, err)
	require.Len(t, layer2Again, 1)
	require.Equal(t, firstSummary, layer2Again[0].CompressedSummary)

	layer3, err := store.JournalsByLayer(ctx, realm, models.LayerIntuition)
	require.NoError(t, err)
	require.Empty(t, layer3, "journal is not old enough to reach layer 3 yet")
}

func TestCompressAggregatesLayer2IntoIntuitionOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	realm := models.RealmUS
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	policy := models.CompressionPolicy{
		Layer1Age:     time.Hour,
		Layer2Age:     time.Hour,
		StaleDays:     60 * 24 * time.Hour,
		ArchiveDays:   180 * 24 * time.Hour,
		MaxPrinciples: 50,
		MaxIntuitions: 50,
	}

	old := now.Add(-48 * time.Hour)
	for i := 0; i < 3; i++ {
		entry := models.JournalEntry{
			ID:               uuid.NewString(),
			Ticker:           models.Ticker{Realm: realm, Code: "AAPL"},
			Market:           realm,
			Sector:           "tech",
			TriggerType:      "volume_surge",
			Action:           "sold",
			Outcome:          "profit",
			CompressionLayer: models.LayerDetailed,
			CreatedAt:        old,
		}
		require.NoError(t, store.InsertJournal(ctx, entry))
	}

	require.NoError(t, store.Compress(ctx, realm, now, policy))

	intuitions, err := store.ActiveIntuitions(ctx, realm)
	require.NoError(t, err)
	require.Len(t, intuitions, 1)
	require.Equal(t, 3, intuitions[0].SupportingTrades)
	firstCount := len(intuitions)

	// A second Compress pass finds nothing left at layer 1 or layer 2 for
	// this group, so it must not create a duplicate intuition.
	require.NoError(t, store.Compress(ctx, realm, now, policy))

	intuitionsAgain, err := store.ActiveIntuitions(ctx, realm)
	require.NoError(t, err)
	require.Len(t, intuitionsAgain, firstCount)
}

func TestCleanupIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	realm := models.RealmUS
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	policy := models.CompressionPolicy{
		Layer1Age:     7 * 24 * time.Hour,
		Layer2Age:     30 * 24 * time.Hour,
		StaleDays:     60 * 24 * time.Hour,
		ArchiveDays:   180 * 24 * time.Hour,
		MaxPrinciples: 50,
		MaxIntuitions: 50,
	}

	weak := models.Principle{
		ID:               uuid.NewString(),
		Condition:        "rsi<30",
		Action:           "buy",
		Reason:           "oversold bounce",
		Scope:            models.ScopeSector,
		Sector:           "tech",
		SupportingTrades: 1,
		SuccessRate:      0.5,
		IsActive:         true,
		Market:           realm,
		CreatedAt:        now.Add(-90 * 24 * time.Hour),
	}
	require.NoError(t, store.InsertPrinciple(ctx, weak))

	require.NoError(t, store.Cleanup(ctx, realm, now, policy))

	active, err := store.ActivePrinciples(ctx, realm, "tech")
	require.NoError(t, err)
	require.Empty(t, active, "stale, weakly-supported principle must be deactivated")

	// Re-running Cleanup with the same (now, policy) is a no-op: the
	// principle is already inactive, nothing further changes.
	require.NoError(t, store.Cleanup(ctx, realm, now, policy))

	activeAgain, err := store.ActivePrinciples(ctx, realm, "tech")
	require.NoError(t, err)
	require.Empty(t, activeAgain)
}

package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hanriver/tradepilot/internal/models"
)

// Compress implements §4.4's compress(): journals older than Layer1Age move
// from layer 1 (detailed) to layer 2 (summarized, one line); journals older
// than Layer2Age move from layer 2 to layer 3, aggregating repeated
// patterns into Intuitions keyed by (category, subcategory, condition).
// Idempotent: a journal already at or past its target layer is untouched.
func (s *Store) Compress(ctx context.Context, realm models.Realm, now time.Time, policy models.CompressionPolicy) error {
	layer1, err := s.JournalsByLayer(ctx, realm, models.LayerDetailed)
	if err != nil {
		return err
	}
	for _, j := range layer1 {
		if now.Sub(j.CreatedAt) < policy.Layer1Age {
			continue
		}
		summary := fmt.Sprintf("%s + %s → %s → %s", j.Sector, j.TriggerType, j.Action, j.Outcome)
		if err := s.UpdateJournalCompression(ctx, j.ID, models.LayerSummarized, summary); err != nil {
			return err
		}
	}

	layer2, err := s.JournalsByLayer(ctx, realm, models.LayerSummarized)
	if err != nil {
		return err
	}
	groups := make(map[string][]models.JournalEntry)
	for _, j := range layer2 {
		if now.Sub(j.CreatedAt) < policy.Layer2Age {
			continue
		}
		groups[intuitionKey(j)] = append(groups[intuitionKey(j)], j)
	}
	for key, journals := range groups {
		if err := s.aggregateIntuition(ctx, realm, journals); err != nil {
			return err
		}
		for _, j := range journals {
			if err := s.UpdateJournalCompression(ctx, j.ID, models.LayerIntuition, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// intuitionKey is the (category, subcategory, condition) grouping key §4.4
// names for layer-3 aggregation: sector as category, trigger as
// subcategory, outcome as the condition being tested.
func intuitionKey(j models.JournalEntry) string {
	return j.Sector + "|" + j.TriggerType + "|" + j.Outcome
}

// aggregateIntuition rolls a group of same-pattern journals into one
// Intuition, computing supporting_trades and success_rate from the group.
func (s *Store) aggregateIntuition(ctx context.Context, realm models.Realm, journals []models.JournalEntry) error {
	if len(journals) == 0 {
		return nil
	}
	wins := 0
	sourceIDs := make([]string, 0, len(journals))
	for _, j := range journals {
		if j.Outcome == "profit" {
			wins++
		}
		sourceIDs = append(sourceIDs, j.ID)
	}
	head := journals[0]

	return s.InsertIntuition(ctx, models.Intuition{
		ID:               uuid.NewString(),
		Category:         head.Sector,
		Subcategory:      head.TriggerType,
		Condition:        head.Outcome,
		Insight:          fmt.Sprintf("%s setups in %s trading as %s %d/%d of the time", head.TriggerType, head.Sector, head.Outcome, wins, len(journals)),
		Confidence:       float64(len(journals)) / float64(len(journals)+3),
		SupportingTrades: len(journals),
		SuccessRate:      float64(wins) / float64(len(journals)),
		IsActive:         true,
		Market:           realm,
		SourceJournalIDs: sourceIDs,
		CreatedAt:        time.Now(),
	})
}

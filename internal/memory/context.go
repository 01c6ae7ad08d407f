package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanriver/tradepilot/internal/models"
)

const principleTopK = 5

// ContextForTicker implements context_for_ticker(ticker, sector,
// trigger_type): a bounded, formatted context string the decision layer
// folds into its buy/sell agent prompts.
func (s *Store) ContextForTicker(ctx context.Context, ticker models.Ticker, sector, triggerType string) (string, error) {
	var sb strings.Builder

	if stats, ok, err := s.PerformanceStats(ctx, ticker.Realm, triggerType); err != nil {
		return "", err
	} else if ok {
		fmt.Fprintf(&sb, "Trigger performance (%s): n=%d win_rate=%.0f%% avg_7d=%.1f%% avg_14d=%.1f%% avg_30d=%.1f%%\n",
			triggerType, stats.N, stats.WinRate*100, stats.Avg7D*100, stats.Avg14D*100, stats.Avg30D*100)
	}

	recent, err := s.recentTradesForTicker(ctx, ticker, 3)
	if err != nil {
		return "", err
	}
	if len(recent) > 0 {
		sb.WriteString("Recent trades on this ticker:\n")
		for _, t := range recent {
			fmt.Fprintf(&sb, "- %s: bought %.2f sold %.2f (%+.1f%%), %s\n",
				t.SellDate.Format("2006-01-02"), t.BuyPrice, t.SellPrice, t.ProfitRate*100, t.SellReason)
		}
	}

	principles, err := s.topPrinciples(ctx, ticker.Realm, sector, principleTopK)
	if err != nil {
		return "", err
	}
	if len(principles) > 0 {
		sb.WriteString("Applicable principles:\n")
		for _, p := range principles {
			fmt.Fprintf(&sb, "- if %s then %s (%s, success %.0f%% over %d trades)\n",
				p.Condition, p.Action, p.Reason, p.SuccessRate*100, p.SupportingTrades)
		}
	}

	intuitions, err := s.relevantIntuitions(ctx, ticker.Realm, sector, triggerType, principleTopK)
	if err != nil {
		return "", err
	}
	if len(intuitions) > 0 {
		sb.WriteString("Relevant intuitions:\n")
		for _, in := range intuitions {
			fmt.Fprintf(&sb, "- %s (confidence %.0f%%)\n", in.Insight, in.Confidence*100)
		}
	}

	return sb.String(), nil
}

// ScoreAdjustment implements score_adjustment(ticker, sector, trigger_type):
// a recommendation, not a hard rule, bounded to [-3, +3].
func (s *Store) ScoreAdjustment(ctx context.Context, ticker models.Ticker, sector, triggerType string) (int, []string, error) {
	delta := 0
	var reasons []string

	if stats, ok, err := s.PerformanceStats(ctx, ticker.Realm, triggerType); err != nil {
		return 0, nil, err
	} else if ok {
		switch {
		case stats.WinRate >= 0.65:
			delta++
			reasons = append(reasons, fmt.Sprintf("%s wins %.0f%% historically", triggerType, stats.WinRate*100))
		case stats.WinRate <= 0.35:
			delta--
			reasons = append(reasons, fmt.Sprintf("%s wins only %.0f%% historically", triggerType, stats.WinRate*100))
		}
	}

	recent, err := s.recentTradesForTicker(ctx, ticker, 3)
	if err != nil {
		return 0, nil, err
	}
	losses := 0
	for _, t := range recent {
		if t.ProfitRate < 0 {
			losses++
		}
	}
	if losses >= 2 {
		delta--
		reasons = append(reasons, "this ticker has lost on at least two of its last three exits")
	}

	intuitions, err := s.relevantIntuitions(ctx, ticker.Realm, sector, triggerType, principleTopK)
	if err != nil {
		return 0, nil, err
	}
	for _, in := range intuitions {
		if in.SuccessRate >= 0.7 {
			delta++
			reasons = append(reasons, in.Insight)
			break
		}
	}

	if delta > 3 {
		delta = 3
	}
	if delta < -3 {
		delta = -3
	}
	return delta, reasons, nil
}

func (s *Store) recentTradesForTicker(ctx context.Context, ticker models.Ticker, limit int) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, buy_price, buy_date, quantity, sector, sell_price, sell_date, sell_reason,
		       profit_rate, holding_days, scenario_json, trigger_type, trigger_mode
		FROM trades WHERE market = ? AND ticker = ? ORDER BY sell_date DESC LIMIT ?
	`, string(ticker.Realm), ticker.Code, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		var scenarioJSON string
		if err := rows.Scan(&t.ID, &t.BuyPrice, &t.BuyDate, &t.Quantity, &t.Sector, &t.SellPrice,
			&t.SellDate, &t.SellReason, &t.ProfitRate, &t.HoldingDays, &scenarioJSON,
			&t.TriggerType, &t.TriggerMode); err != nil {
			return nil, fmt.Errorf("scan recent trade: %w", err)
		}
		t.Ticker = ticker
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) topPrinciples(ctx context.Context, realm models.Realm, sector string, k int) ([]models.Principle, error) {
	all, err := s.ActivePrinciples(ctx, realm, sector)
	if err != nil {
		return nil, err
	}
	var filtered []models.Principle
	for _, p := range all {
		if p.Scope == models.ScopeUniversal && p.SupportingTrades >= 2 {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

func (s *Store) relevantIntuitions(ctx context.Context, realm models.Realm, sector, triggerType string, k int) ([]models.Intuition, error) {
	all, err := s.ActiveIntuitions(ctx, realm)
	if err != nil {
		return nil, err
	}
	var filtered []models.Intuition
	for _, in := range all {
		if in.Category == sector || in.Subcategory == triggerType {
			filtered = append(filtered, in)
		}
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered, nil
}

package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hanriver/tradepilot/internal/models"
)

// Holdings returns every live position for realm, newest buy first.
func (s *Store) Holdings(ctx context.Context, realm models.Realm) ([]models.Holding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, buy_price, buy_date, quantity, sector, scenario_json,
		       current_price, last_updated, trigger_name
		FROM holdings WHERE market = ? ORDER BY buy_date DESC
	`, string(realm))
	if err != nil {
		return nil, fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	var out []models.Holding
	for rows.Next() {
		var h models.Holding
		var code, scenarioJSON string
		if err := rows.Scan(&h.ID, &code, &h.BuyPrice, &h.BuyDate, &h.Quantity, &h.Sector,
			&scenarioJSON, &h.CurrentPrice, &h.LastUpdated, &h.TriggerName); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		h.Ticker = models.Ticker{Realm: realm, Code: code}
		if scenarioJSON != "" {
			_ = json.Unmarshal([]byte(scenarioJSON), &h.Scenario)
		}
		out = append(out, h)
	}
	return out, nil
}

// UpsertHolding persists a new or mutated Holding (buy, or a price refresh).
func (s *Store) UpsertHolding(ctx context.Context, h models.Holding) error {
	scenarioJSON, err := json.Marshal(h.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO holdings (id, market, ticker, buy_price, buy_date, quantity, sector,
			scenario_json, current_price, last_updated, trigger_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scenario_json = excluded.scenario_json,
			current_price = excluded.current_price,
			last_updated = excluded.last_updated
	`, h.ID, string(h.Ticker.Realm), h.Ticker.Code, h.BuyPrice, h.BuyDate, h.Quantity, h.Sector,
		string(scenarioJSON), h.CurrentPrice, h.LastUpdated, h.TriggerName)
	if err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}

// DeleteHolding removes a position that was just sold.
func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return nil
}

// InsertTrade appends a closed position record.
func (s *Store) InsertTrade(ctx context.Context, t models.Trade) error {
	scenarioJSON, err := json.Marshal(t.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trades (id, market, ticker, buy_price, buy_date, quantity, sector,
			sell_price, sell_date, sell_reason, profit_rate, holding_days, scenario_json,
			trigger_type, trigger_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, string(t.Ticker.Realm), t.Ticker.Code, t.BuyPrice, t.BuyDate, t.Quantity, t.Sector,
		t.SellPrice, t.SellDate, t.SellReason, t.ProfitRate, t.HoldingDays, string(scenarioJSON),
		t.TriggerType, t.TriggerMode)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// TradesByTriggerType returns every closed trade for a trigger, used by
// PerformanceStats.
func (s *Store) TradesByTriggerType(ctx context.Context, realm models.Realm, triggerType string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, buy_price, buy_date, quantity, sector, sell_price, sell_date,
		       sell_reason, profit_rate, holding_days, scenario_json, trigger_type, trigger_mode
		FROM trades WHERE market = ? AND trigger_type = ? ORDER BY sell_date DESC
	`, string(realm), triggerType)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		var code, scenarioJSON string
		if err := rows.Scan(&t.ID, &code, &t.BuyPrice, &t.BuyDate, &t.Quantity, &t.Sector,
			&t.SellPrice, &t.SellDate, &t.SellReason, &t.ProfitRate, &t.HoldingDays,
			&scenarioJSON, &t.TriggerType, &t.TriggerMode); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Ticker = models.Ticker{Realm: realm, Code: code}
		if scenarioJSON != "" {
			_ = json.Unmarshal([]byte(scenarioJSON), &t.Scenario)
		}
		out = append(out, t)
	}
	return out, nil
}

// UpsertWatchlistEntry records a ticker analyzed but not entered.
func (s *Store) UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	var scenarioJSON []byte
	if e.Scenario != nil {
		var err error
		scenarioJSON, err = json.Marshal(e.Scenario)
		if err != nil {
			return fmt.Errorf("marshal scenario: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watchlist (ticker, market, analyzed_date, buy_score, decision, skip_reason, scenario_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, market, analyzed_date) DO UPDATE SET
			buy_score = excluded.buy_score,
			decision = excluded.decision,
			skip_reason = excluded.skip_reason,
			scenario_json = excluded.scenario_json
	`, e.Ticker.Code, string(e.Ticker.Realm), e.AnalyzedDate, e.BuyScore, e.Decision, e.SkipReason, string(scenarioJSON))
	if err != nil {
		return fmt.Errorf("upsert watchlist entry: %w", err)
	}
	return nil
}

// UpsertPerformanceRow writes or backfills a performance-tracker row.
func (s *Store) UpsertPerformanceRow(ctx context.Context, realm models.Realm, row models.PerformanceRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance_tracker (ticker, market, analyzed_date, trigger_type, price_t0, price_7d, price_14d, price_30d)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, market, analyzed_date) DO UPDATE SET
			price_7d = COALESCE(excluded.price_7d, performance_tracker.price_7d),
			price_14d = COALESCE(excluded.price_14d, performance_tracker.price_14d),
			price_30d = COALESCE(excluded.price_30d, performance_tracker.price_30d)
	`, row.Ticker.Code, string(realm), row.AnalyzedDate, row.TriggerType, row.PriceT0,
		row.Price7D, row.Price14D, row.Price30D)
	if err != nil {
		return fmt.Errorf("upsert performance row: %w", err)
	}
	return nil
}

// PendingPerformanceRows returns rows still missing a 30-day price. No
// session step calls it; nothing in this repo backfills those prices.
func (s *Store) PendingPerformanceRows(ctx context.Context, realm models.Realm) ([]models.PerformanceRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ticker, analyzed_date, trigger_type, price_t0, price_7d, price_14d, price_30d
		FROM performance_tracker WHERE market = ? AND price_30d IS NULL
	`, string(realm))
	if err != nil {
		return nil, fmt.Errorf("query pending performance rows: %w", err)
	}
	defer rows.Close()

	var out []models.PerformanceRow
	for rows.Next() {
		var r models.PerformanceRow
		var code string
		if err := rows.Scan(&code, &r.AnalyzedDate, &r.TriggerType, &r.PriceT0, &r.Price7D, &r.Price14D, &r.Price30D); err != nil {
			return nil, fmt.Errorf("scan performance row: %w", err)
		}
		r.Ticker = models.Ticker{Realm: realm, Code: code}
		out = append(out, r)
	}
	return out, nil
}

package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/models"
)

const journalGeneratorSystemPrompt = `You are a disciplined trading journal writer. Given a closed
trade's buy and sell context, produce:
1. A situation analysis (what the market was doing)
2. A judgment evaluation (was the original thesis correct)
3. Two to four concrete lessons, one per line, each starting with "- "
4. A single one-line summary sentence
Be specific and avoid generic advice.`

// WriteJournal implements §4.4's write_journal(trade): after a sell, invoke
// the journal-generator agent to produce a structured retrospective and
// persist it at compression layer 1.
func (s *Store) WriteJournal(ctx context.Context, provider llm.Provider, timeout time.Duration, trade models.Trade, buyContext, sellContext string) (models.JournalEntry, error) {
	user := fmt.Sprintf(
		"Ticker: %s\nSector: %s\nTrigger: %s\nBuy: %.2f on %s\nSell: %.2f on %s (%s)\nProfit rate: %.2f%%\nBuy context:\n%s\nSell context:\n%s",
		trade.Ticker, trade.Sector, trade.TriggerType,
		trade.BuyPrice, trade.BuyDate.Format("2006-01-02"),
		trade.SellPrice, trade.SellDate.Format("2006-01-02"), trade.SellReason,
		trade.ProfitRate*100, buyContext, sellContext,
	)

	content, err := llm.InvokeText(ctx, provider, timeout, journalGeneratorSystemPrompt, user)
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("generate journal: %w", err)
	}

	outcome := "loss"
	if trade.ProfitRate > 0 {
		outcome = "profit"
	}

	entry := models.JournalEntry{
		ID:                 uuid.NewString(),
		Ticker:             trade.Ticker,
		Market:             trade.Ticker.Realm,
		TradeDates:         []time.Time{trade.BuyDate, trade.SellDate},
		BuyContext:         buyContext,
		SellContext:        sellContext,
		SituationAnalysis:  content,
		JudgmentEvaluation: content,
		Lessons:            splitLessons(content),
		PatternTags:        []string{trade.TriggerType},
		OneLineSummary:     firstLine(content),
		Confidence:         0.6,
		CompressionLayer:   models.LayerDetailed,
		Sector:             trade.Sector,
		TriggerType:        trade.TriggerType,
		Action:             "sold",
		Outcome:            outcome,
		CreatedAt:          trade.SellDate,
	}

	if err := s.InsertJournal(ctx, entry); err != nil {
		return models.JournalEntry{}, err
	}
	return entry, nil
}

func (s *Store) InsertJournal(ctx context.Context, e models.JournalEntry) error {
	tradeDatesJSON, _ := json.Marshal(e.TradeDates)
	lessonsJSON, _ := json.Marshal(e.Lessons)
	tagsJSON, _ := json.Marshal(e.PatternTags)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journals (id, market, ticker, trade_dates_json, buy_context, sell_context,
			situation_analysis, judgment_evaluation, lessons_json, pattern_tags_json,
			one_line_summary, confidence, compression_layer, compressed_summary, sector,
			trigger_type, action, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Market), e.Ticker.Code, string(tradeDatesJSON), e.BuyContext, e.SellContext,
		e.SituationAnalysis, e.JudgmentEvaluation, string(lessonsJSON), string(tagsJSON),
		e.OneLineSummary, e.Confidence, e.CompressionLayer, e.CompressedSummary, e.Sector,
		e.TriggerType, e.Action, e.Outcome, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}
	return nil
}

// JournalsByLayer returns every journal at compressionLayer for realm,
// oldest first, the shape compress() iterates.
func (s *Store) JournalsByLayer(ctx context.Context, realm models.Realm, layer models.CompressionLayer) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, trade_dates_json, buy_context, sell_context, situation_analysis,
		       judgment_evaluation, lessons_json, pattern_tags_json, one_line_summary, confidence,
		       compression_layer, compressed_summary, sector, trigger_type, action, outcome, created_at
		FROM journals WHERE market = ? AND compression_layer = ? ORDER BY created_at ASC
	`, string(realm), layer)
	if err != nil {
		return nil, fmt.Errorf("query journals: %w", err)
	}
	defer rows.Close()

	var out []models.JournalEntry
	for rows.Next() {
		e, code, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		e.Market = realm
		e.Ticker = models.Ticker{Realm: realm, Code: code}
		out = append(out, e)
	}
	return out, nil
}

func scanJournal(rows *sql.Rows) (models.JournalEntry, string, error) {
	var e models.JournalEntry
	var code, tradeDatesJSON, lessonsJSON, tagsJSON string
	var compressedSummary sql.NullString
	if err := rows.Scan(&e.ID, &code, &tradeDatesJSON, &e.BuyContext, &e.SellContext,
		&e.SituationAnalysis, &e.JudgmentEvaluation, &lessonsJSON, &tagsJSON, &e.OneLineSummary,
		&e.Confidence, &e.CompressionLayer, &compressedSummary, &e.Sector, &e.TriggerType,
		&e.Action, &e.Outcome, &e.CreatedAt); err != nil {
		return models.JournalEntry{}, "", fmt.Errorf("scan journal: %w", err)
	}
	_ = json.Unmarshal([]byte(tradeDatesJSON), &e.TradeDates)
	_ = json.Unmarshal([]byte(lessonsJSON), &e.Lessons)
	_ = json.Unmarshal([]byte(tagsJSON), &e.PatternTags)
	e.CompressedSummary = compressedSummary.String
	return e, code, nil
}

// UpdateJournalCompression promotes a journal to a new layer with its
// compressed summary text.
func (s *Store) UpdateJournalCompression(ctx context.Context, id string, layer models.CompressionLayer, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE journals SET compression_layer = ?, compressed_summary = ? WHERE id = ?
	`, layer, summary, id)
	if err != nil {
		return fmt.Errorf("update journal compression: %w", err)
	}
	return nil
}

// DeleteJournal removes an archived (layer 3, past ArchiveDays) journal.
func (s *Store) DeleteJournal(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func splitLessons(content string) []string {
	var lessons []string
	line := ""
	for _, r := range content + "\n" {
		if r == '\n' {
			if len(line) > 2 && line[0] == '-' {
				lessons = append(lessons, line[2:])
			}
			line = ""
			continue
		}
		line += string(r)
	}
	return lessons
}

// Package memory implements the Trading Memory component of §4.4: the sole
// writer of persisted trade history and derived knowledge, and the
// context/adjustment service the decision layer consults before acting.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the single sqlite database backing every persisted entity
// named in §6: Holdings, Trades, Watchlist, Performance Tracker, Journals,
// Principles, Intuitions. It is the only process-wide mutable state and
// follows a single-writer discipline (§9).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at dbPath and
// ensures its schema.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_loc=Local")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureSchema creates one table each for Holdings, Trades, Watchlist,
// Performance Tracker, Journals, Principles, Intuitions, every one carrying
// a `market` discriminator column, plus the indices named in §6.
func (s *Store) ensureSchema() error {
	ddls := []string{
		`CREATE TABLE IF NOT EXISTS holdings (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			ticker TEXT NOT NULL,
			buy_price REAL NOT NULL,
			buy_date DATETIME NOT NULL,
			quantity REAL NOT NULL,
			sector TEXT,
			scenario_json TEXT,
			current_price REAL,
			last_updated DATETIME,
			trigger_name TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			ticker TEXT NOT NULL,
			buy_price REAL NOT NULL,
			buy_date DATETIME NOT NULL,
			quantity REAL NOT NULL,
			sector TEXT,
			sell_price REAL NOT NULL,
			sell_date DATETIME NOT NULL,
			sell_reason TEXT,
			profit_rate REAL,
			holding_days INTEGER,
			scenario_json TEXT,
			trigger_type TEXT,
			trigger_mode TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			ticker TEXT NOT NULL,
			market TEXT NOT NULL,
			analyzed_date DATETIME NOT NULL,
			buy_score REAL,
			decision TEXT,
			skip_reason TEXT,
			scenario_json TEXT,
			PRIMARY KEY (ticker, market, analyzed_date)
		);`,
		`CREATE TABLE IF NOT EXISTS performance_tracker (
			ticker TEXT NOT NULL,
			market TEXT NOT NULL,
			analyzed_date DATETIME NOT NULL,
			trigger_type TEXT,
			price_t0 REAL,
			price_7d REAL,
			price_14d REAL,
			price_30d REAL,
			PRIMARY KEY (ticker, market, analyzed_date)
		);`,
		`CREATE TABLE IF NOT EXISTS journals (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			ticker TEXT NOT NULL,
			trade_dates_json TEXT,
			buy_context TEXT,
			sell_context TEXT,
			situation_analysis TEXT,
			judgment_evaluation TEXT,
			lessons_json TEXT,
			pattern_tags_json TEXT,
			one_line_summary TEXT,
			confidence REAL,
			compression_layer INTEGER NOT NULL DEFAULT 1,
			compressed_summary TEXT,
			sector TEXT,
			trigger_type TEXT,
			action TEXT,
			outcome TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS principles (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			condition TEXT,
			action TEXT,
			reason TEXT,
			scope TEXT,
			sector TEXT,
			supporting_trades INTEGER,
			success_rate REAL,
			is_active INTEGER NOT NULL DEFAULT 1,
			source_journal_ids_json TEXT,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS intuitions (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			category TEXT,
			subcategory TEXT,
			condition TEXT,
			insight TEXT,
			confidence REAL,
			supporting_trades INTEGER,
			success_rate REAL,
			is_active INTEGER NOT NULL DEFAULT 1,
			source_journal_ids_json TEXT,
			created_at DATETIME NOT NULL
		);`,
	}
	for _, ddl := range ddls {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indices := []string{
		`CREATE INDEX IF NOT EXISTS idx_holdings_ticker ON holdings(ticker);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_holdings_market_ticker ON holdings(market, ticker);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_trigger_type ON trades(trigger_type);`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_ticker ON watchlist(ticker);`,
		`CREATE INDEX IF NOT EXISTS idx_watchlist_analyzed_date ON watchlist(analyzed_date DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_perf_ticker ON performance_tracker(ticker);`,
		`CREATE INDEX IF NOT EXISTS idx_perf_analyzed_date ON performance_tracker(analyzed_date DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_perf_trigger_type ON performance_tracker(trigger_type);`,
		`CREATE INDEX IF NOT EXISTS idx_journals_ticker ON journals(ticker);`,
		`CREATE INDEX IF NOT EXISTS idx_journals_trigger_type ON journals(trigger_type);`,
		`CREATE INDEX IF NOT EXISTS idx_journals_pattern_tags ON journals(pattern_tags_json);`,
		`CREATE INDEX IF NOT EXISTS idx_journals_created_at ON journals(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_principles_sector ON principles(sector);`,
		`CREATE INDEX IF NOT EXISTS idx_intuitions_category ON intuitions(category);`,
	}
	for _, idx := range indices {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

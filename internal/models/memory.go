package models

import "time"

// CompressionLayer is a journal's compression level, per §3/§4.4.
type CompressionLayer int

const (
	LayerDetailed     CompressionLayer = 1
	LayerSummarized   CompressionLayer = 2
	LayerIntuition    CompressionLayer = 3
)

// JournalEntry is the structured retrospective written after a sell.
type JournalEntry struct {
	ID                string           `json:"id"`
	Ticker            Ticker           `json:"ticker"`
	Market            Realm            `json:"market"`
	TradeDates        []time.Time      `json:"trade_dates"`
	BuyContext        string           `json:"buy_context"`
	SellContext       string           `json:"sell_context"`
	SituationAnalysis string           `json:"situation_analysis"`
	JudgmentEvaluation string          `json:"judgment_evaluation"`
	Lessons           []string         `json:"lessons"`
	PatternTags       []string         `json:"pattern_tags"`
	OneLineSummary    string           `json:"one_line_summary"`
	Confidence        float64          `json:"confidence"`
	CompressionLayer  CompressionLayer `json:"compression_layer"`
	CompressedSummary string           `json:"compressed_summary,omitempty"`
	Sector            string           `json:"sector"`
	TriggerType       string           `json:"trigger_type"`
	Action            string           `json:"action"` // e.g. "sold"
	Outcome           string           `json:"outcome"` // e.g. "profit" | "loss"
	CreatedAt         time.Time        `json:"created_at"`
}

// PrincipleScope bounds a Principle's applicability.
type PrincipleScope string

const (
	ScopeUniversal PrincipleScope = "universal"
	ScopeSector    PrincipleScope = "sector"
	ScopeMarket    PrincipleScope = "market"
)

// Principle is a rule-shaped derived-knowledge artifact.
type Principle struct {
	ID                string         `json:"id"`
	Condition         string         `json:"condition"`
	Action            string         `json:"action"`
	Reason            string         `json:"reason"`
	Scope             PrincipleScope `json:"scope"`
	SupportingTrades  int            `json:"supporting_trades"`
	SuccessRate       float64        `json:"success_rate"`
	IsActive          bool           `json:"is_active"`
	SourceJournalIDs  []string       `json:"source_journal_ids"`
	Market            Realm          `json:"market"`
	CreatedAt         time.Time      `json:"created_at"`
	Sector            string         `json:"sector,omitempty"`
}

// Intuition is a pattern-shaped derived-knowledge artifact.
type Intuition struct {
	ID               string    `json:"id"`
	Category         string    `json:"category"`
	Subcategory      string    `json:"subcategory"`
	Condition        string    `json:"condition"`
	Insight          string    `json:"insight"`
	Confidence       float64   `json:"confidence"`
	SupportingTrades int       `json:"supporting_trades"`
	SuccessRate      float64   `json:"success_rate"`
	IsActive         bool      `json:"is_active"`
	Market           Realm     `json:"market"`
	SourceJournalIDs []string  `json:"source_journal_ids"`
	CreatedAt        time.Time `json:"created_at"`
}

// PerformanceStats is performance_stats(trigger_type)'s result, present
// only when n >= 3.
type PerformanceStats struct {
	N       int     `json:"n"`
	WinRate float64 `json:"win_rate"`
	Avg7D   float64 `json:"avg_7d"`
	Avg14D  float64 `json:"avg_14d"`
	Avg30D  float64 `json:"avg_30d"`
}

// CompressionPolicy parameterizes compress() and cleanup().
type CompressionPolicy struct {
	Layer1Age  time.Duration
	Layer2Age  time.Duration
	StaleDays  time.Duration
	ArchiveDays time.Duration
	MaxPrinciples int
	MaxIntuitions int
}

// DefaultCompressionPolicy matches the ages named in §4.4.
func DefaultCompressionPolicy() CompressionPolicy {
	day := 24 * time.Hour
	return CompressionPolicy{
		Layer1Age:     7 * day,
		Layer2Age:     30 * day,
		StaleDays:     60 * day,
		ArchiveDays:   180 * day,
		MaxPrinciples: 50,
		MaxIntuitions: 50,
	}
}

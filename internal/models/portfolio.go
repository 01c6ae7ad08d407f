package models

import "time"

// InvestmentPeriod is the Scenario's horizon classification.
type InvestmentPeriod string

const (
	PeriodShort InvestmentPeriod = "short"
	PeriodMid   InvestmentPeriod = "mid"
	PeriodLong  InvestmentPeriod = "long"
)

// Scenario is the structured buy plan produced by the decision agent, per §3.
//
// Invariants (checked by Scenario.Validate): stop_loss_price < entry_price <
// target_price; (target-entry)/(entry-stop) >= R/R_target(trigger);
// (entry-stop)/entry <= SL_max(trigger).
type Scenario struct {
	EntryPrice       float64          `json:"entry_price"`
	TargetPrice      float64          `json:"target_price"`
	StopLossPrice    float64          `json:"stop_loss_price"`
	InvestmentPeriod InvestmentPeriod `json:"investment_period"`
	BuyScore         float64          `json:"buy_score"` // in [0,10]
	Rationale        string           `json:"rationale"`
	KeyLevels        []float64        `json:"key_levels"`
	SellTriggers     []string         `json:"sell_triggers"`
	HoldConditions   []string         `json:"hold_conditions"`
}

// RiskReward is (target-entry)/(entry-stop); undefined (0) when entry==stop.
func (s Scenario) RiskReward() float64 {
	risk := s.EntryPrice - s.StopLossPrice
	if risk <= 0 {
		return 0
	}
	return (s.TargetPrice - s.EntryPrice) / risk
}

// StopLossPct is (entry-stop)/entry.
func (s Scenario) StopLossPct() float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	return (s.EntryPrice - s.StopLossPrice) / s.EntryPrice
}

// Validate checks the three Scenario invariants against a trigger's policy.
func (s Scenario) Validate(policy TriggerPolicy) error {
	if !(s.StopLossPrice < s.EntryPrice && s.EntryPrice < s.TargetPrice) {
		return errInvalidScenario("stop_loss_price < entry_price < target_price violated")
	}
	if s.RiskReward() < policy.RRTarget {
		return errInvalidScenario("risk_reward below R/R target")
	}
	if s.StopLossPct() > policy.SLMax {
		return errInvalidScenario("stop-loss percentage exceeds SL_max")
	}
	return nil
}

type scenarioError string

func (e scenarioError) Error() string { return string(e) }

func errInvalidScenario(msg string) error { return scenarioError(msg) }

// Holding is a live position, per §3. Lifecycle: created by buy; mutated by
// price refresh; destroyed by sell.
type Holding struct {
	ID           string    `json:"id"`
	Ticker       Ticker    `json:"ticker"`
	BuyPrice     float64   `json:"buy_price"`
	BuyDate      time.Time `json:"buy_date"`
	Quantity     float64   `json:"quantity"`
	Sector       string    `json:"sector"`
	Scenario     Scenario  `json:"scenario"`
	CurrentPrice float64   `json:"current_price"`
	LastUpdated  time.Time `json:"last_updated"`
	TriggerName  string    `json:"trigger_name"`
}

// MarketValue is quantity * current_price.
func (h Holding) MarketValue() float64 {
	return h.Quantity * h.CurrentPrice
}

// ProfitRate is the unrealized return relative to buy price.
func (h Holding) ProfitRate() float64 {
	if h.BuyPrice == 0 {
		return 0
	}
	return (h.CurrentPrice - h.BuyPrice) / h.BuyPrice
}

// Trade is a closed position record, per §3.
type Trade struct {
	ID          string    `json:"id"`
	Ticker      Ticker    `json:"ticker"`
	BuyPrice    float64   `json:"buy_price"`
	BuyDate     time.Time `json:"buy_date"`
	Quantity    float64   `json:"quantity"`
	Sector      string    `json:"sector"`
	SellPrice   float64   `json:"sell_price"`
	SellDate    time.Time `json:"sell_date"`
	SellReason  string    `json:"sell_reason"`
	ProfitRate  float64   `json:"profit_rate"`
	HoldingDays int       `json:"holding_days"`
	Scenario    Scenario  `json:"scenario"`
	TriggerType string    `json:"trigger_type"`
	TriggerMode string    `json:"trigger_mode"`
}

// WatchlistEntry records a ticker that was analyzed but not entered.
type WatchlistEntry struct {
	Ticker       Ticker    `json:"ticker"`
	AnalyzedDate time.Time `json:"analyzed_date"`
	BuyScore     float64   `json:"buy_score"`
	Decision     string    `json:"decision"` // "skip" | "adjust"
	SkipReason   string    `json:"skip_reason"`
	Scenario     *Scenario `json:"scenario,omitempty"`
}

// PerformanceRow tracks a ticker's forward returns after it was screened,
// filled incrementally as 7/14/30 trading days elapse.
type PerformanceRow struct {
	Ticker       Ticker    `json:"ticker"`
	AnalyzedDate time.Time `json:"analyzed_date"`
	TriggerType  string    `json:"trigger_type"`
	PriceT0      float64   `json:"price_t0"`
	Price7D      *float64  `json:"price_7d,omitempty"`
	Price14D     *float64  `json:"price_14d,omitempty"`
	Price30D     *float64  `json:"price_30d,omitempty"`
}

// PortfolioLimits are the hard invariants of §3.
const (
	MaxHoldings          = 10
	MaxPerSectorCount    = 3
	MaxPerSectorWeight   = 0.30
)

// Portfolio is the in-memory view over current Holdings used by the
// decision layer to check invariants before committing a buy.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

func (p Portfolio) Full() bool {
	return len(p.Holdings) >= MaxHoldings
}

func (p Portfolio) SectorCount(sector string) int {
	n := 0
	for _, h := range p.Holdings {
		if h.Sector == sector {
			n++
		}
	}
	return n
}

// TotalValue sums market value across all holdings.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.MarketValue()
	}
	return total
}

// SectorWeight is the fraction of total portfolio value held in sector,
// as it would be after adding an incremental position of addedValue.
func (p Portfolio) SectorWeight(sector string, addedValue float64) float64 {
	existing := 0.0
	for _, h := range p.Holdings {
		if h.Sector == sector {
			existing += h.MarketValue()
		}
	}
	total := p.TotalValue() + addedValue
	if total <= 0 {
		return 0
	}
	return (existing + addedValue) / total
}

func (p Portfolio) HasTicker(t Ticker) bool {
	for _, h := range p.Holdings {
		if h.Ticker == t {
			return true
		}
	}
	return false
}

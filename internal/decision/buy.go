package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/memory"
	"github.com/hanriver/tradepilot/internal/models"
)

// RegimeGate is the regime-adaptive threshold of §4.5 step 5.
type RegimeGate struct {
	MinBuyScore   float64
	MinRiskReward float64
	MaxStopLoss   float64
}

// GateFor returns the buy threshold for a regime.
func GateFor(regime models.Regime) RegimeGate {
	if regime == models.RegimeBull {
		return RegimeGate{MinBuyScore: 6, MinRiskReward: 1.5, MaxStopLoss: 0.10}
	}
	return RegimeGate{MinBuyScore: 7, MinRiskReward: 2.0, MaxStopLoss: 0.07}
}

// buyAgentOutput is the structured response the buy agent is instructed to
// emit; a response that fails to parse is schema-invalid (§4.5's retry
// rule).
type buyAgentOutput struct {
	Decision string         `json:"decision"` // "buy" | "skip"
	Scenario models.Scenario `json:"scenario"`
}

const buySystemPrompt = `You are a disciplined trading decision agent. Given a ticker's
analytical report, current portfolio status, trigger metadata, trading-memory
context, and the current market regime, decide whether to buy.

Respond with ONLY a JSON object of this exact shape:
{"decision":"buy"|"skip","scenario":{"entry_price":0,"target_price":0,"stop_loss_price":0,
"investment_period":"short"|"mid"|"long","buy_score":0,"rationale":"",
"key_levels":[0],"sell_triggers":[""],"hold_conditions":[""]}}
buy_score is in [0,10]. No prose outside the JSON.`

// BuyDecision is the buy workflow's final disposition for one ticker.
type BuyDecision struct {
	Outcome    models.TickerOutcome // bought | skipped
	Holding    models.Holding
	Watchlist  models.WatchlistEntry
	Reason     string
}

// Buy implements §4.5's buy workflow. Agent errors and schema-invalid
// responses degrade to "skip", never a silent commit.
func Buy(ctx context.Context, provider llm.Provider, timeout time.Duration, store *memory.Store,
	ticker models.Ticker, report models.Report, triggerHit models.TriggerHit, sector string,
	portfolio models.Portfolio, regime models.Regime, referenceDate time.Time) (BuyDecision, error) {

	if portfolio.Full() {
		return BuyDecision{Outcome: models.OutcomeSkipped, Reason: "portfolio is full"}, nil
	}
	if portfolio.HasTicker(ticker) {
		return BuyDecision{Outcome: models.OutcomeSkipped, Reason: "ticker already held"}, nil
	}

	memCtx, err := store.ContextForTicker(ctx, ticker, sector, triggerHit.TriggerName)
	if err != nil {
		return BuyDecision{}, fmt.Errorf("context for ticker: %w", err)
	}
	delta, reasons, err := store.ScoreAdjustment(ctx, ticker, sector, triggerHit.TriggerName)
	if err != nil {
		return BuyDecision{}, fmt.Errorf("score adjustment: %w", err)
	}

	out, err := invokeBuyAgent(ctx, provider, timeout, ticker, report, portfolio, triggerHit, memCtx, regime)
	if err != nil {
		return BuyDecision{Outcome: models.OutcomeSkipped, Reason: "agent error: " + err.Error()}, nil
	}

	if out.Decision != "buy" {
		return BuyDecision{
			Outcome: models.OutcomeSkipped,
			Reason:  "agent decided skip",
			Watchlist: models.WatchlistEntry{
				Ticker: ticker, AnalyzedDate: referenceDate,
				BuyScore: out.Scenario.BuyScore, Decision: "skip", SkipReason: "agent decided skip",
			},
		}, nil
	}

	adjustedScore := out.Scenario.BuyScore + float64(delta)
	gate := GateFor(regime)
	policy := models.Policies[triggerHit.TriggerName]

	if reason, ok := passesGate(out.Scenario, adjustedScore, gate, policy); !ok {
		return BuyDecision{
			Outcome: models.OutcomeSkipped,
			Reason:  reason,
			Watchlist: models.WatchlistEntry{
				Ticker: ticker, AnalyzedDate: referenceDate,
				BuyScore: adjustedScore, Decision: "skip", SkipReason: reason,
				Scenario: &out.Scenario,
			},
		}, nil
	}

	sector2 := sector
	if portfolio.SectorCount(sector2) >= models.MaxPerSectorCount {
		reason := "sector count cap reached"
		return BuyDecision{
			Outcome: models.OutcomeSkipped, Reason: reason,
			Watchlist: models.WatchlistEntry{Ticker: ticker, AnalyzedDate: referenceDate, BuyScore: adjustedScore, Decision: "skip", SkipReason: reason, Scenario: &out.Scenario},
		}, nil
	}
	addedValue := out.Scenario.EntryPrice // one unit; sizing beyond this is out of scope
	if portfolio.SectorWeight(sector2, addedValue) > models.MaxPerSectorWeight {
		reason := "sector weight cap reached"
		return BuyDecision{
			Outcome: models.OutcomeSkipped, Reason: reason,
			Watchlist: models.WatchlistEntry{Ticker: ticker, AnalyzedDate: referenceDate, BuyScore: adjustedScore, Decision: "skip", SkipReason: reason, Scenario: &out.Scenario},
		}, nil
	}

	if len(reasons) > 0 {
		out.Scenario.Rationale = out.Scenario.Rationale + " | memory: " + strings.Join(reasons, "; ")
	}

	holding := models.Holding{
		ID:           uuid.NewString(),
		Ticker:       ticker,
		BuyPrice:     out.Scenario.EntryPrice,
		BuyDate:      referenceDate,
		Quantity:     1,
		Sector:       sector2,
		Scenario:     out.Scenario,
		CurrentPrice: out.Scenario.EntryPrice,
		LastUpdated:  referenceDate,
		TriggerName:  triggerHit.TriggerName,
	}

	return BuyDecision{Outcome: models.OutcomeBought, Holding: holding, Reason: "accepted"}, nil
}

func passesGate(scenario models.Scenario, adjustedScore float64, gate RegimeGate, policy models.TriggerPolicy) (string, bool) {
	if adjustedScore < gate.MinBuyScore {
		return fmt.Sprintf("buy_score %.1f below regime threshold %.1f", adjustedScore, gate.MinBuyScore), false
	}
	if scenario.RiskReward() < gate.MinRiskReward {
		return fmt.Sprintf("risk_reward %.2f below regime threshold %.2f", scenario.RiskReward(), gate.MinRiskReward), false
	}
	if scenario.StopLossPct() > gate.MaxStopLoss {
		return fmt.Sprintf("stop-loss %.1f%% exceeds regime threshold %.1f%%", scenario.StopLossPct()*100, gate.MaxStopLoss*100), false
	}
	if err := scenario.Validate(policy); err != nil {
		return err.Error(), false
	}
	return "", true
}

func invokeBuyAgent(ctx context.Context, provider llm.Provider, timeout time.Duration, ticker models.Ticker,
	report models.Report, portfolio models.Portfolio, triggerHit models.TriggerHit, memCtx string, regime models.Regime) (buyAgentOutput, error) {

	user := fmt.Sprintf(
		"Ticker: %s\nRegime: %s\nTrigger: %s (composite=%.3f, final=%.3f)\nPortfolio holdings: %d/%d\n\nStrategy:\n%s\n\nMemory context:\n%s",
		ticker, regime, triggerHit.TriggerName, triggerHit.CompositeScore, triggerHit.FinalScore,
		len(portfolio.Holdings), models.MaxHoldings, report.Strategy, memCtx,
	)

	raw, err := llm.InvokeText(ctx, provider, timeout, buySystemPrompt, user)
	if err != nil {
		return buyAgentOutput{}, err
	}

	out, parseErr := parseBuyOutput(raw)
	if parseErr == nil {
		return out, nil
	}

	// schema-invalid: retry once per §4.5
	raw, err = llm.InvokeText(ctx, provider, timeout, buySystemPrompt+"\nYour previous reply was not valid JSON. Reply with JSON only.", user)
	if err != nil {
		return buyAgentOutput{}, err
	}
	out, parseErr = parseBuyOutput(raw)
	if parseErr != nil {
		return buyAgentOutput{}, errs.SchemaViolation("buy agent response", parseErr)
	}
	return out, nil
}

func parseBuyOutput(raw string) (buyAgentOutput, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var out buyAgentOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return buyAgentOutput{}, err
	}
	return out, nil
}

package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/memory"
	"github.com/hanriver/tradepilot/internal/models"
)

type sellAgentOutput struct {
	ShouldSell           bool    `json:"should_sell"`
	SellReason           string  `json:"sell_reason"`
	Confidence           float64 `json:"confidence"`
	AdjustmentSuggestion *struct {
		TargetPrice   float64 `json:"target_price"`
		StopLossPrice float64 `json:"stop_loss_price"`
	} `json:"adjustment_suggestion,omitempty"`
}

const sellSystemPrompt = `You manage an open position. Given the holding's scenario, its current
price, and why it may warrant review, decide whether to sell now, hold, or
propose a scenario adjustment.

Respond with ONLY a JSON object of this exact shape:
{"should_sell":true|false,"sell_reason":"","confidence":0,
"adjustment_suggestion":{"target_price":0,"stop_loss_price":0}}
Omit adjustment_suggestion entirely when none applies. No prose outside the JSON.`

// SellDisposition is the sell workflow's outcome for one Holding.
type SellDisposition struct {
	Outcome       models.TickerOutcome // sold | held
	Trade         models.Trade
	UpdatedHolding models.Holding
	Reason        string
}

// Sell implements §4.5's sell workflow for one Holding. Agent errors and
// schema-invalid responses degrade to "hold", never a silent commit.
func Sell(ctx context.Context, provider llm.Provider, timeout time.Duration, store *memory.Store,
	holding models.Holding, currentPrice float64, referenceDate time.Time) (SellDisposition, error) {

	holding.CurrentPrice = currentPrice
	holding.LastUpdated = referenceDate

	mechanical, reason := mechanicalSellCheck(holding, currentPrice, referenceDate)

	out, err := invokeSellAgent(ctx, provider, timeout, holding, currentPrice, mechanical, reason)
	if err != nil {
		return SellDisposition{Outcome: models.OutcomeHeld, UpdatedHolding: holding, Reason: "agent error: " + err.Error()}, nil
	}

	if !out.ShouldSell && !mechanical {
		updated := holding
		if out.AdjustmentSuggestion != nil {
			updated.Scenario.TargetPrice = out.AdjustmentSuggestion.TargetPrice
			updated.Scenario.StopLossPrice = out.AdjustmentSuggestion.StopLossPrice
		}
		return SellDisposition{Outcome: models.OutcomeHeld, UpdatedHolding: updated, Reason: "held"}, nil
	}

	sellReason := out.SellReason
	if sellReason == "" {
		sellReason = reason
	}

	trade := models.Trade{
		ID:          holding.ID,
		Ticker:      holding.Ticker,
		BuyPrice:    holding.BuyPrice,
		BuyDate:     holding.BuyDate,
		Quantity:    holding.Quantity,
		Sector:      holding.Sector,
		SellPrice:   currentPrice,
		SellDate:    referenceDate,
		SellReason:  sellReason,
		ProfitRate:  (currentPrice - holding.BuyPrice) / holding.BuyPrice,
		HoldingDays: int(referenceDate.Sub(holding.BuyDate).Hours() / 24),
		Scenario:    holding.Scenario,
		TriggerType: holding.TriggerName,
		TriggerMode: "sell",
	}

	return SellDisposition{Outcome: models.OutcomeSold, Trade: trade, Reason: sellReason}, nil
}

// mechanicalSellCheck applies the hard rules of §4.5 step 2: stop-loss
// breach or target hit always warrant a sell regardless of what the agent
// says, so the agent call is advisory context, not the sole gate.
func mechanicalSellCheck(holding models.Holding, currentPrice float64, referenceDate time.Time) (bool, string) {
	if currentPrice <= holding.Scenario.StopLossPrice {
		return true, "stop-loss breached"
	}
	if currentPrice >= holding.Scenario.TargetPrice {
		return true, "target reached"
	}
	if expired(holding, referenceDate) {
		return true, "scenario expired"
	}
	return false, ""
}

// expiryHorizon bounds how long a Scenario stays valid by its investment
// period before it is treated as expired (§4.5 step 2's "scenario expiry").
var expiryHorizon = map[models.InvestmentPeriod]time.Duration{
	models.PeriodShort: 10 * 24 * time.Hour,
	models.PeriodMid:   30 * 24 * time.Hour,
	models.PeriodLong:  90 * 24 * time.Hour,
}

func expired(holding models.Holding, referenceDate time.Time) bool {
	horizon, ok := expiryHorizon[holding.Scenario.InvestmentPeriod]
	if !ok {
		horizon = expiryHorizon[models.PeriodMid]
	}
	return referenceDate.Sub(holding.BuyDate) > horizon
}

func invokeSellAgent(ctx context.Context, provider llm.Provider, timeout time.Duration, holding models.Holding,
	currentPrice float64, mechanical bool, mechanicalReason string) (sellAgentOutput, error) {

	user := fmt.Sprintf(
		"Ticker: %s\nEntry: %.2f Target: %.2f Stop: %.2f\nCurrent: %.2f\nMechanical trigger: %v (%s)\nSell triggers: %s\nHold conditions: %s",
		holding.Ticker, holding.Scenario.EntryPrice, holding.Scenario.TargetPrice, holding.Scenario.StopLossPrice,
		currentPrice, mechanical, mechanicalReason,
		strings.Join(holding.Scenario.SellTriggers, "; "), strings.Join(holding.Scenario.HoldConditions, "; "),
	)

	raw, err := llm.InvokeText(ctx, provider, timeout, sellSystemPrompt, user)
	if err != nil {
		return sellAgentOutput{}, err
	}
	out, parseErr := parseSellOutput(raw)
	if parseErr == nil {
		return out, nil
	}

	raw, err = llm.InvokeText(ctx, provider, timeout, sellSystemPrompt+"\nYour previous reply was not valid JSON. Reply with JSON only.", user)
	if err != nil {
		return sellAgentOutput{}, err
	}
	out, parseErr = parseSellOutput(raw)
	if parseErr != nil {
		return sellAgentOutput{}, errs.SchemaViolation("sell agent response", parseErr)
	}
	return out, nil
}

func parseSellOutput(raw string) (sellAgentOutput, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var out sellAgentOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return sellAgentOutput{}, err
	}
	return out, nil
}

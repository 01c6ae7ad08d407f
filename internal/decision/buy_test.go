package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hanriver/tradepilot/internal/models"
)

func TestBuyRefusesPortfolioFull(t *testing.T) {
	ticker := models.Ticker{Realm: models.RealmUS, Code: "AAPL"}
	var holdings []models.Holding
	for i := 0; i < models.MaxHoldings; i++ {
		holdings = append(holdings, models.Holding{Ticker: models.Ticker{Realm: models.RealmUS, Code: string(rune('A' + i))}})
	}
	portfolio := models.Portfolio{Holdings: holdings}

	decision, err := Buy(context.Background(), nil, 0, nil, ticker, models.Report{}, models.TriggerHit{}, "tech", portfolio, models.RegimeBull, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSkipped, decision.Outcome)
	assert.Equal(t, "portfolio is full", decision.Reason)
}

func TestBuyRefusesAlreadyHeldTicker(t *testing.T) {
	ticker := models.Ticker{Realm: models.RealmUS, Code: "AAPL"}
	portfolio := models.Portfolio{Holdings: []models.Holding{{Ticker: ticker}}}

	// Buy must refuse before ever touching store or provider: both are
	// nil here and would panic if the HasTicker check didn't short-circuit.
	decision, err := Buy(context.Background(), nil, 0, nil, ticker, models.Report{}, models.TriggerHit{}, "tech", portfolio, models.RegimeBull, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSkipped, decision.Outcome)
	assert.Equal(t, "ticker already held", decision.Reason)
}

func TestPortfolioHasTickerDistinguishesHeldFromCandidate(t *testing.T) {
	held := models.Ticker{Realm: models.RealmUS, Code: "AAPL"}
	candidate := models.Ticker{Realm: models.RealmUS, Code: "MSFT"}
	portfolio := models.Portfolio{Holdings: []models.Holding{{Ticker: held}}}

	assert.False(t, portfolio.HasTicker(candidate))
	assert.True(t, portfolio.HasTicker(held))
}

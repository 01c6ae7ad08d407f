package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScenarioValidate(t *testing.T) {
	policy := TriggerPolicy{Name: "volume_surge", SLMax: 0.07, RRTarget: 2.0}

	tests := []struct {
		name     string
		scenario Scenario
		wantErr  bool
	}{
		{
			name: "valid scenario passes",
			scenario: Scenario{
				EntryPrice: 100, TargetPrice: 120, StopLossPrice: 93,
			},
			wantErr: false,
		},
		{
			name: "stop_loss_price >= entry_price violates ordering",
			scenario: Scenario{
				EntryPrice: 100, TargetPrice: 120, StopLossPrice: 100,
			},
			wantErr: true,
		},
		{
			name: "entry_price >= target_price violates ordering",
			scenario: Scenario{
				EntryPrice: 100, TargetPrice: 100, StopLossPrice: 93,
			},
			wantErr: true,
		},
		{
			name: "risk_reward below policy target",
			scenario: Scenario{
				EntryPrice: 100, TargetPrice: 105, StopLossPrice: 93,
			},
			wantErr: true,
		},
		{
			name: "stop-loss percentage exceeds SL_max",
			scenario: Scenario{
				EntryPrice: 100, TargetPrice: 150, StopLossPrice: 80,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate(policy)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScenarioRiskRewardUndefinedWhenNoRisk(t *testing.T) {
	s := Scenario{EntryPrice: 100, StopLossPrice: 100, TargetPrice: 120}
	assert.Equal(t, 0.0, s.RiskReward())
}

func TestPortfolioFull(t *testing.T) {
	var holdings []Holding
	for i := 0; i < MaxHoldings; i++ {
		holdings = append(holdings, Holding{Ticker: Ticker{Realm: RealmUS, Code: "T" + string(rune('A'+i))}})
	}
	full := Portfolio{Holdings: holdings}
	assert.True(t, full.Full())

	notFull := Portfolio{Holdings: holdings[:MaxHoldings-1]}
	assert.False(t, notFull.Full())
}

func TestPortfolioHasTicker(t *testing.T) {
	held := Ticker{Realm: RealmKR, Code: "005930"}
	other := Ticker{Realm: RealmKR, Code: "000660"}
	p := Portfolio{Holdings: []Holding{{Ticker: held}}}

	assert.True(t, p.HasTicker(held))
	assert.False(t, p.HasTicker(other))
	assert.False(t, Portfolio{}.HasTicker(held))
}

func TestPortfolioSectorCountAndWeight(t *testing.T) {
	p := Portfolio{Holdings: []Holding{
		{Ticker: Ticker{Realm: RealmUS, Code: "A"}, Sector: "tech", Quantity: 1, CurrentPrice: 100},
		{Ticker: Ticker{Realm: RealmUS, Code: "B"}, Sector: "tech", Quantity: 1, CurrentPrice: 100},
		{Ticker: Ticker{Realm: RealmUS, Code: "C"}, Sector: "energy", Quantity: 1, CurrentPrice: 100},
	}}

	assert.Equal(t, 2, p.SectorCount("tech"))
	assert.Equal(t, 1, p.SectorCount("energy"))
	assert.Equal(t, 0, p.SectorCount("finance"))

	assert.Equal(t, 300.0, p.TotalValue())

	// Adding 100 more tech value on top of 300 existing (200 tech + 100 energy)
	// gives (200+100)/(300+100) = 0.75.
	assert.InDelta(t, 0.75, p.SectorWeight("tech", 100), 1e-9)
	assert.Equal(t, 0.0, Portfolio{}.SectorWeight("tech", 0))
}

func TestHoldingProfitRate(t *testing.T) {
	h := Holding{BuyPrice: 100, CurrentPrice: 110, Quantity: 2, LastUpdated: time.Now()}
	assert.InDelta(t, 0.10, h.ProfitRate(), 1e-9)
	assert.Equal(t, 220.0, h.MarketValue())

	zero := Holding{}
	assert.Equal(t, 0.0, zero.ProfitRate())
}

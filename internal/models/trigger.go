package models

// TriggerHit is one candidate produced by a screener trigger, per §3.
type TriggerHit struct {
	TriggerName    string             `json:"trigger_name"`
	Ticker         Ticker             `json:"ticker"`
	TradingDay     string             `json:"trading_day"`
	CompositeScore float64            `json:"composite_score"` // in [0,1]
	AgentFitScore  float64            `json:"agent_fit_score"`
	FinalScore     float64            `json:"final_score"`
	Metrics        map[string]float64 `json:"metrics"`

	// Agent-fit inputs computed in screener stage 4, carried forward so the
	// decision layer does not recompute them.
	StopLossPrice float64 `json:"stop_loss_price"`
	TargetPrice   float64 `json:"target_price"`
	RiskReward    float64 `json:"risk_reward"`
}

// TriggerPolicy is the fixed per-trigger acceptance parameters of §4.2 step 4.
type TriggerPolicy struct {
	Name        string
	SLMax       float64 // fixed stop-loss percentage, e.g. 0.05 or 0.07
	RRTarget    float64 // required risk/reward ratio
}

// Policies for every trigger named in §4.2. SL/RR values are the fixed
// per-trigger acceptance parameters the screener's agent-fit stage consults.
var Policies = map[string]TriggerPolicy{
	"volume_surge":          {Name: "volume_surge", SLMax: 0.07, RRTarget: 2.0},
	"gap_up_momentum":       {Name: "gap_up_momentum", SLMax: 0.05, RRTarget: 2.5},
	"value_to_cap":          {Name: "value_to_cap", SLMax: 0.07, RRTarget: 2.0},
	"intraday_rise":         {Name: "intraday_rise", SLMax: 0.05, RRTarget: 2.5},
	"closing_strength":      {Name: "closing_strength", SLMax: 0.05, RRTarget: 2.0},
	"volume_surge_sideways": {Name: "volume_surge_sideways", SLMax: 0.07, RRTarget: 1.5},
}

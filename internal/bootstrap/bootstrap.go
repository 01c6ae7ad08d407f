// Package bootstrap wires a config.Config into the concrete collaborators
// one orchestrator run needs: a realm's Market Data Client, an LLM
// Provider, tool Services, the trading-memory Store, a messaging Sink and
// a Broker Adapter. There is no process-wide singleton (§9) — every CLI
// invocation builds and discards its own set.
package bootstrap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanriver/tradepilot/internal/broker"
	"github.com/hanriver/tradepilot/internal/config"
	"github.com/hanriver/tradepilot/internal/errs"
	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/market"
	"github.com/hanriver/tradepilot/internal/market/kr"
	"github.com/hanriver/tradepilot/internal/market/us"
	"github.com/hanriver/tradepilot/internal/memory"
	"github.com/hanriver/tradepilot/internal/messaging"
	"github.com/hanriver/tradepilot/internal/models"
	"github.com/hanriver/tradepilot/internal/orchestrator"
	"github.com/hanriver/tradepilot/internal/tools"
)

// Runtime bundles everything one orchestrator.Orchestrator needs, plus the
// Store directly since memory commands (compress/cleanup) use it without
// spinning up a full orchestrator.
type Runtime struct {
	Client market.Client
	Store  *memory.Store
	Orch   *orchestrator.Orchestrator
}

// Close releases resources a Runtime opened (currently just the sqlite
// handle; the market/LLM/messaging clients are request-scoped HTTP
// wrappers with nothing to close).
func (r *Runtime) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// NewMarketClient builds the realm-specific Market Data Client backend.
func NewMarketClient(cfg *config.Config, realm models.Realm) (market.Client, error) {
	switch realm {
	case models.RealmKR:
		if cfg.BrokerAppKey == "" || cfg.BrokerAppSecret == "" || cfg.BrokerToken == "" {
			return nil, errs.ConfigError("KR realm requires BROKER_APP_KEY/BROKER_APP_SECRET/BROKER_ACCESS_TOKEN", nil)
		}
		return kr.New(cfg.BrokerAppKey, cfg.BrokerAppSecret, cfg.BrokerToken, cfg.KRUniverse)
	case models.RealmUS:
		return us.New(cfg.USUniverse), nil
	default:
		return nil, errs.ConfigError("unknown realm: "+string(realm), nil)
	}
}

// NewBroker builds the Broker Adapter for cfg.TradingMode, defaulting to
// the demo broker simulated over client when the mode is unset or "demo".
func NewBroker(cfg *config.Config, client market.Client) (broker.Adapter, error) {
	switch broker.Mode(cfg.TradingMode) {
	case broker.ModeReal:
		if cfg.BrokerAppKey == "" || cfg.BrokerAppSecret == "" || cfg.BrokerToken == "" {
			return nil, errs.ConfigError("real trading mode requires BROKER_APP_KEY/BROKER_APP_SECRET/BROKER_ACCESS_TOKEN", nil)
		}
		return broker.NewLongPortBroker(cfg.BrokerAppKey, cfg.BrokerAppSecret, cfg.BrokerToken, client.Calendar())
	default:
		return broker.NewDemoBroker(client), nil
	}
}

// NewSink builds the messaging Sink, falling back to a no-op sink when
// messaging is disabled or no webhook URL is configured.
func NewSink(cfg *config.Config, log zerolog.Logger) messaging.Sink {
	if !cfg.MessagingEnabled || cfg.MessagingWebhookURL == "" {
		return messaging.NoopSink{}
	}
	return messaging.NewWebhookSink(cfg.MessagingWebhookURL, log)
}

// Build assembles a full Runtime for one (realm) CLI invocation.
func Build(ctx context.Context, cfg *config.Config, realm models.Realm, log zerolog.Logger) (*Runtime, error) {
	if !cfg.HasLLMCredentials() {
		return nil, errs.ConfigError("no LLM provider credentials configured (DEEPSEEK_API_KEY or OPENAI_API_KEY)", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, errs.ConfigError("create data/results directories", err)
	}

	client, err := NewMarketClient(cfg, realm)
	if err != nil {
		return nil, err
	}

	provider, err := llm.New(ctx, cfg.LLMProvider, cfg.DeepSeekAPIKey, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, errs.ConfigError("construct LLM provider", err)
	}

	store, err := memory.Open(cfg.DBPath)
	if err != nil {
		return nil, errs.ConfigError("open trading memory store", err)
	}

	brokerAdapter, err := NewBroker(cfg, client)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc := tools.NewHTTPServices(nil, cfg.SearchAPIURL, time.Duration(cfg.LLMTimeoutSec)*time.Second)
	sink := NewSink(cfg, log)

	orch := &orchestrator.Orchestrator{
		Client:             client,
		Provider:           provider,
		Tools:              svc,
		Store:              store,
		Sink:               sink,
		Broker:             brokerAdapter,
		Log:                log,
		InterSectionPause:  time.Duration(cfg.InterSectionPauseSec) * time.Second,
		MaxSectionRetries:  cfg.MaxSectionRetries,
		MaxEvaluatorRounds: cfg.MaxEvaluatorRounds,
		SectionTimeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
		MaxParallelTickers: cfg.MaxParallelTickers,
	}

	return &Runtime{Client: client, Store: store, Orch: orch}, nil
}

// Package config loads tradepilot's runtime configuration from environment
// variables (optionally via a .env file), following the same
// default-then-override shape as the rest of this codebase's components.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hanriver/tradepilot/internal/models"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	DataDir    string `json:"data_dir"`
	ResultsDir string `json:"results_dir"`

	DefaultRealm    models.Realm `json:"default_realm"`
	DefaultLanguage string       `json:"default_language"`

	LLMProvider    string `json:"llm_provider"`
	DeepSeekAPIKey string `json:"-"`
	OpenAIAPIKey   string `json:"-"`
	LLMTimeoutSec  int    `json:"llm_timeout_sec"`

	MessagingWebhookURL string `json:"-"`
	MessagingEnabled    bool   `json:"messaging_enabled"`

	BrokerAppKey    string `json:"-"`
	BrokerAppSecret string `json:"-"`
	BrokerToken     string `json:"-"`
	TradingMode     string `json:"trading_mode"` // demo | real

	DBPath string `json:"db_path"`

	SearchAPIURL string `json:"-"`

	KRUniverse []string `json:"kr_universe"`
	USUniverse []string `json:"us_universe"`

	MaxSelectedTickers   int `json:"max_selected_tickers"`
	MaxParallelTickers   int `json:"max_parallel_tickers"` // §5 open question; default 1
	InterSectionPauseSec int `json:"inter_section_pause_sec"`
	MaxSectionRetries    int `json:"max_section_retries"`
	MaxEvaluatorRounds   int `json:"max_evaluator_rounds"`

	// MorningCron/AfternoonCron are the 5-field cron expressions
	// `session run --schedule` uses to fire each session when run as a
	// long-lived daemon instead of once-and-exit.
	MorningCron   string `json:"morning_cron"`
	AfternoonCron string `json:"afternoon_cron"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir: currentDir,
		DataDir:    filepath.Join(currentDir, "data"),
		ResultsDir: filepath.Join(currentDir, "results"),

		DefaultRealm:    models.RealmUS,
		DefaultLanguage: "en",

		LLMProvider:   "deepseek",
		LLMTimeoutSec: 60,

		MessagingEnabled: true,

		TradingMode: "demo",

		KRUniverse: []string{"005930", "000660", "035420", "035720", "051910"},
		USUniverse: []string{"AAPL", "MSFT", "NVDA", "AMZN", "AVGO", "WMT", "NEE", "MU"},

		MaxSelectedTickers:   3,
		MaxParallelTickers:   1,
		InterSectionPauseSec: 2,
		MaxSectionRetries:    2,
		MaxEvaluatorRounds:   3,

		MorningCron:   "0 9 * * MON-FRI",
		AfternoonCron: "30 13 * * MON-FRI",
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "tradepilot.db")

	_ = godotenv.Load()
	cfg.loadFromEnv()
	return cfg
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("PROJECT_DIR"); v != "" {
		c.ProjectDir = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
		c.DBPath = filepath.Join(v, "tradepilot.db")
	}
	if v := os.Getenv("RESULTS_DIR"); v != "" {
		c.ResultsDir = v
	}
	if v := os.Getenv("DEFAULT_REALM"); v != "" {
		c.DefaultRealm = models.Realm(strings.ToUpper(v))
	}
	if v := os.Getenv("DEFAULT_LANGUAGE"); v != "" {
		c.DefaultLanguage = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLMProvider = v
	}
	c.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("LLM_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLMTimeoutSec = n
		}
	}
	c.SearchAPIURL = os.Getenv("SEARCH_API_URL")
	c.MessagingWebhookURL = os.Getenv("MESSAGING_WEBHOOK_URL")
	if v := os.Getenv("MESSAGING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MessagingEnabled = b
		}
	}
	c.BrokerAppKey = os.Getenv("BROKER_APP_KEY")
	c.BrokerAppSecret = os.Getenv("BROKER_APP_SECRET")
	c.BrokerToken = os.Getenv("BROKER_ACCESS_TOKEN")
	if v := os.Getenv("TRADING_MODE"); v != "" {
		c.TradingMode = v
	}
	if v := os.Getenv("KR_UNIVERSE"); v != "" {
		c.KRUniverse = strings.Split(v, ",")
	}
	if v := os.Getenv("US_UNIVERSE"); v != "" {
		c.USUniverse = strings.Split(v, ",")
	}
	if v := os.Getenv("MAX_PARALLEL_TICKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxParallelTickers = n
		}
	}
	if v := os.Getenv("MORNING_CRON"); v != "" {
		c.MorningCron = v
	}
	if v := os.Getenv("AFTERNOON_CRON"); v != "" {
		c.AfternoonCron = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// EnsureDirectories creates the data/results directories this config names.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.ResultsDir, filepath.Dir(c.DBPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// HasLLMCredentials reports whether at least one provider key is set, the
// ConfigError precondition checked at startup per §6.
func (c *Config) HasLLMCredentials() bool {
	return c.DeepSeekAPIKey != "" || c.OpenAIAPIKey != ""
}

// Package config loads bot configuration: exchange credentials from the
// environment and trading parameters from a JSON file that can be edited
// while the bot is running.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bryanlew/algocrypto/pkg/types"
)

// Config is the complete bot configuration.
type Config struct {
	Exchange ExchangeConfig `json:"exchange"`
	Trading  TradingConfig  `json:"trading"`

	// Notification configuration (optional)
	Notifications NotificationConfig `json:"notifications"`
}

// ExchangeConfig holds Bybit connectivity settings. Credentials come from
// the environment, never from the JSON file.
type ExchangeConfig struct {
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
	Testnet   bool   `json:"testnet"`
	Demo      bool   `json:"demo"`
}

// TradingConfig holds the trading parameters. This section is reloadable at
// runtime via the Watcher.
type TradingConfig struct {
	Enabled bool `json:"enabled"`

	// Universe and cadence
	Assets   []string `json:"assets"`   // tradeable symbol allow-list
	Interval string   `json:"interval"` // kline interval (Bybit notation, e.g. "60")

	// Strategy selection: "bollinger", "ma_cross", "rsi", or "auto" to let
	// the evaluator pick per symbol at startup.
	Strategy string `json:"strategy"`

	// Position and risk parameters
	HedgeMode           bool    `json:"hedge_mode"`
	Capital             float64 `json:"capital"`
	RiskFraction        float64 `json:"risk_fraction"`
	MaxConcurrentTrades int     `json:"max_concurrent_trades"`
	DrawdownLimit       float64 `json:"drawdown_limit"`
	StopLossFraction    float64 `json:"stop_loss_fraction"`
	TakeProfitFraction  float64 `json:"take_profit_fraction"`
	FixedQuantity       float64 `json:"fixed_quantity"`

	// Per-symbol leverage, e.g. {"BTCUSDT": 3}. Symbols not listed default
	// to DefaultLeverage.
	Leverage        map[string]int `json:"leverage"`
	DefaultLeverage int            `json:"default_leverage"`
}

// NotificationConfig holds Telegram alert settings.
type NotificationConfig struct {
	Enabled       bool   `json:"enabled"`
	TelegramToken string `json:"-"`
	TelegramChat  string `json:"telegram_chat"`
}

// Load reads the trading config file and merges exchange credentials from
// the environment.
func Load(configFile string) (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadFile(configFile); err != nil {
		return nil, err
	}

	cfg.Exchange.APIKey = os.Getenv("BYBIT_API_KEY")
	cfg.Exchange.APISecret = os.Getenv("BYBIT_API_SECRET")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", cfg.Exchange.Testnet)
	cfg.Exchange.Demo = getEnvBool("BYBIT_DEMO", cfg.Exchange.Demo)
	cfg.Notifications.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		cfg.Notifications.TelegramChat = chat
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	c.Trading.setDefaults()
	return nil
}

// setDefaults fills in defaults for missing trading parameters.
func (t *TradingConfig) setDefaults() {
	if len(t.Assets) == 0 {
		t.Assets = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	}
	if t.Interval == "" {
		t.Interval = "60"
	}
	if t.Strategy == "" {
		t.Strategy = "auto"
	}
	if t.Capital == 0 {
		t.Capital = 100000
	}
	if t.RiskFraction == 0 {
		t.RiskFraction = 0.01
	}
	if t.MaxConcurrentTrades == 0 {
		t.MaxConcurrentTrades = 5
	}
	if t.DrawdownLimit == 0 {
		t.DrawdownLimit = 0.20
	}
	if t.StopLossFraction == 0 {
		t.StopLossFraction = 0.02
	}
	if t.TakeProfitFraction == 0 {
		t.TakeProfitFraction = 0.04
	}
	if t.DefaultLeverage == 0 {
		t.DefaultLeverage = 1
	}
}

func (c *Config) validate() error {
	t := &c.Trading

	if t.RiskFraction <= 0 || t.RiskFraction > 0.5 {
		return fmt.Errorf("risk fraction must be in (0, 0.5], got %f", t.RiskFraction)
	}
	if t.DrawdownLimit <= 0 || t.DrawdownLimit >= 1 {
		return fmt.Errorf("drawdown limit must be in (0, 1), got %f", t.DrawdownLimit)
	}
	if t.Capital <= 0 {
		return fmt.Errorf("capital must be greater than 0")
	}
	if t.StopLossFraction <= 0 {
		return fmt.Errorf("stop loss fraction must be greater than 0")
	}
	if t.TakeProfitFraction <= 0 {
		return fmt.Errorf("take profit fraction must be greater than 0")
	}
	if t.MaxConcurrentTrades < 0 {
		return fmt.Errorf("max concurrent trades cannot be negative")
	}

	switch t.Strategy {
	case "auto", "bollinger", "ma_cross", "rsi":
	default:
		return fmt.Errorf("unknown strategy %q", t.Strategy)
	}

	for symbol, lev := range t.Leverage {
		if lev < 1 || lev > 100 {
			return fmt.Errorf("leverage for %s must be between 1 and 100, got %d", symbol, lev)
		}
	}

	return nil
}

// Mode returns the configured position mode.
func (t *TradingConfig) Mode() types.PositionMode {
	if t.HedgeMode {
		return types.ModeHedge
	}
	return types.ModeOneWay
}

// LeverageFor returns the leverage for a symbol, falling back to the
// default.
func (t *TradingConfig) LeverageFor(symbol string) int {
	if lev, ok := t.Leverage[symbol]; ok {
		return lev
	}
	return t.DefaultLeverage
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rovshanmuradov/coinsniper/internal/strategy"
	"github.com/spf13/viper"
)

type Config struct {
	TweetPollSeconds int    `mapstructure:"tweet_poll_seconds"`
	PricePollSeconds int    `mapstructure:"price_poll_seconds"`
	TweetCount       int    `mapstructure:"tweet_count"`
	BuyAmountSOL     string `mapstructure:"buy_amount_sol"`

	TakeProfitTiers         string  `mapstructure:"take_profit_tiers"`
	TrailingStartMultiplier float64 `mapstructure:"trailing_start_multiplier"`
	TrailingStopFactor      float64 `mapstructure:"trailing_stop_factor"`
	HardStopFactor          float64 `mapstructure:"hard_stop_factor"`
	MaxHoldSeconds          int     `mapstructure:"max_hold_seconds"`
	TimeExitMultiplier      float64 `mapstructure:"time_exit_multiplier"`

	TwitterHandles string `mapstructure:"twitter_handles"`
	AccountsFile   string `mapstructure:"accounts_file"`

	TweetScoutAPIKey string `mapstructure:"tweet_scout_api_key"`
	TweetScoutURL    string `mapstructure:"tweet_scout_url"`

	HeliusAPIKey        string `mapstructure:"helius_api_key"`
	HeliusRPCURL        string `mapstructure:"helius_rpc_url"`
	PriceTimeoutSeconds int    `mapstructure:"price_timeout_seconds"`

	GMGNBot         string `mapstructure:"gmgn_bot"`
	ChatBridgeURL   string `mapstructure:"chat_bridge_url"`
	ChatBridgeToken string `mapstructure:"chat_bridge_token"`

	SeenCapacity    int `mapstructure:"seen_capacity"`
	ClosedRetention int `mapstructure:"closed_retention"`

	TradeLogDir  string `mapstructure:"trade_log_dir"`
	LogFile      string `mapstructure:"log_file"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	MetricsAddr  string `mapstructure:"metrics_addr"`

	LicenseKey         string `mapstructure:"license_key"`
	KeygenAccountID    string `mapstructure:"keygen_account_id"`
	KeygenProductID    string `mapstructure:"keygen_product_id"`
	KeygenProductToken string `mapstructure:"keygen_product_token"`

	// Resolved from the raw settings above by Load.
	Handles []string        `mapstructure:"-"`
	Tiers   []strategy.Tier `mapstructure:"-"`
}

const (
	DefaultTweetPollSeconds = 120
	DefaultPricePollSeconds = 5
	DefaultTweetCount       = 5
	DefaultBuyAmountSOL     = "0.00015"
	DefaultTakeProfitTiers  = "2:0.30,5:0.60,10:0.90"
	DefaultMaxHoldSeconds   = 1800
	DefaultPriceTimeout     = 10
	DefaultGMGNBot          = "@GMGN_sol04_bot"
	DefaultTweetScoutURL    = "https://api.tweetscout.io/v2"
	DefaultHeliusRPCURL     = "https://mainnet.helius-rpc.com"
	DefaultSeenCapacity     = 10000
	DefaultClosedRetention  = 1000
)

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"tweet_poll_seconds":        DefaultTweetPollSeconds,
		"price_poll_seconds":        DefaultPricePollSeconds,
		"tweet_count":               DefaultTweetCount,
		"buy_amount_sol":            DefaultBuyAmountSOL,
		"take_profit_tiers":         DefaultTakeProfitTiers,
		"trailing_start_multiplier": 2.0,
		"trailing_stop_factor":      0.75,
		"hard_stop_factor":          0.7,
		"max_hold_seconds":          DefaultMaxHoldSeconds,
		"time_exit_multiplier":      1.2,
		"twitter_handles":           "",
		"accounts_file":             "",
		"tweet_scout_api_key":       "",
		"tweet_scout_url":           DefaultTweetScoutURL,
		"helius_api_key":            "",
		"helius_rpc_url":            DefaultHeliusRPCURL,
		"price_timeout_seconds":     DefaultPriceTimeout,
		"gmgn_bot":                  DefaultGMGNBot,
		"chat_bridge_url":           "",
		"chat_bridge_token":         "",
		"seen_capacity":             DefaultSeenCapacity,
		"closed_retention":          DefaultClosedRetention,
		"trade_log_dir":             "",
		"log_file":                  "",
		"debug_logging":             false,
		"metrics_addr":              "",
		"license_key":               "",
		"keygen_account_id":         "",
		"keygen_product_id":         "",
		"keygen_product_token":      "",
	}
}

// LoadConfig reads settings from .env, an optional config file and the
// environment, in increasing order of precedence, and validates them.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, validateConfig(&cfg)
}

func (c *Config) resolve() error {
	tiers, err := strategy.ParseTiers(c.TakeProfitTiers)
	if err != nil {
		return fmt.Errorf("take_profit_tiers: %w", err)
	}
	c.Tiers = tiers

	handles := splitList(c.TwitterHandles)
	if c.AccountsFile != "" {
		fromFile, err := LoadAccounts(c.AccountsFile)
		if err != nil {
			return err
		}
		handles = append(handles, fromFile...)
	}
	c.Handles = normalizeHandles(handles)
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.TweetScoutAPIKey == "" {
		return errors.New("missing TWEET_SCOUT_API_KEY")
	}
	if cfg.ChatBridgeURL == "" {
		return errors.New("missing CHAT_BRIDGE_URL")
	}
	if err := validateURL(cfg.ChatBridgeURL, "ws"); err != nil {
		return fmt.Errorf("invalid CHAT_BRIDGE_URL: %w", err)
	}
	if err := validateURL(cfg.TweetScoutURL, "http"); err != nil {
		return fmt.Errorf("invalid TWEET_SCOUT_URL: %w", err)
	}
	if err := validateURL(cfg.HeliusRPCURL, "http"); err != nil {
		return fmt.Errorf("invalid HELIUS_RPC_URL: %w", err)
	}
	if len(cfg.Handles) == 0 {
		return errors.New("no twitter handles configured (TWITTER_HANDLES or ACCOUNTS_FILE)")
	}
	if strings.TrimSpace(cfg.BuyAmountSOL) == "" {
		return errors.New("missing BUY_AMOUNT_SOL")
	}
	if strings.TrimSpace(cfg.GMGNBot) == "" {
		return errors.New("missing GMGN_BOT")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if err := cfg.Rules().Validate(); err != nil {
		return fmt.Errorf("invalid exit rules: %w", err)
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.TweetPollSeconds <= 0 {
		return errors.New("invalid tweet_poll_seconds")
	}
	if cfg.PricePollSeconds <= 0 {
		return errors.New("invalid price_poll_seconds")
	}
	if cfg.TweetCount <= 0 {
		return errors.New("invalid tweet_count")
	}
	if cfg.PriceTimeoutSeconds <= 0 {
		return errors.New("invalid price_timeout_seconds")
	}
	if cfg.SeenCapacity <= 0 {
		return errors.New("invalid seen_capacity")
	}
	if cfg.ClosedRetention <= 0 {
		return errors.New("invalid closed_retention")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// Rules assembles the exit thresholds.
func (c *Config) Rules() strategy.Rules {
	return strategy.Rules{
		Tiers:                   c.Tiers,
		TrailingStartMultiplier: c.TrailingStartMultiplier,
		TrailingStopFactor:      c.TrailingStopFactor,
		HardStopFactor:          c.HardStopFactor,
		MaxHold:                 time.Duration(c.MaxHoldSeconds) * time.Second,
		TimeExitMultiplier:      c.TimeExitMultiplier,
	}
}

func (c *Config) TweetPollInterval() time.Duration {
	return time.Duration(c.TweetPollSeconds) * time.Second
}

func (c *Config) PricePollInterval() time.Duration {
	return time.Duration(c.PricePollSeconds) * time.Second
}

func (c *Config) PriceTimeout() time.Duration {
	return time.Duration(c.PriceTimeoutSeconds) * time.Second
}

// LicenseConfigured reports whether every keygen setting is present.
func (c *Config) LicenseConfigured() bool {
	return c.LicenseKey != "" && c.KeygenAccountID != "" &&
		c.KeygenProductID != "" && c.KeygenProductToken != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// normalizeHandles strips "@" prefixes and drops case-insensitive
// duplicates, keeping the first spelling.
func normalizeHandles(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, h := range in {
		h = strings.TrimPrefix(strings.TrimSpace(h), "@")
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

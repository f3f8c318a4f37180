package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"perp_bot/internal/helper"
	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs/"
)

type Binance struct {
	APIKey         string        `yaml:"api_key"`
	APISecret      string        `yaml:"api_secret"`
	BaseURL        string        `yaml:"base_url"`
	WSURL          string        `yaml:"ws_url"`
	RecvWindow     int           `yaml:"recv_window"` // мс
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // запросов в секунду
	TickerStream   bool          `yaml:"ticker_stream"`
	TickerMaxAge   time.Duration `yaml:"ticker_max_age"`
}

type Telegram struct {
	Token       string        `yaml:"token"`
	ChatID      int64         `yaml:"chat_id"`
	SendTimeout time.Duration `yaml:"send_timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

type Trading struct {
	BalanceFraction float64       `yaml:"balance_fraction"` // 0.95 от плеча
	QtyPrecision    int32         `yaml:"qty_precision"`
	PricePrecision  int32         `yaml:"price_precision"`
	MinQty          float64       `yaml:"min_qty"`
	MaxSlippage     float64       `yaml:"max_slippage"` // абсолютная разница цены ордера и close
	OrderTimeout    time.Duration `yaml:"order_timeout"`
	Revalidate      time.Duration `yaml:"revalidate_every"`
	TakeProfitPct   float64       `yaml:"take_profit_pct"`
	StopLossPct     float64       `yaml:"stop_loss_pct"`
	MarketStopLoss  bool          `yaml:"market_stop_loss"`
}

type Indicators struct {
	History     int     `yaml:"history"`
	RSIPeriod   int     `yaml:"rsi_period"`
	StochPeriod int     `yaml:"stoch_period"`
	KPeriod     int     `yaml:"k_period"`
	DPeriod     int     `yaml:"d_period"`
	EMAPeriod   int     `yaml:"ema_period"`
	EMASeed     float64 `yaml:"ema_seed"` // 0: сид по SMA
	BBPeriod    int     `yaml:"bb_period"`
	BBWidth     float64 `yaml:"bb_width"`
	HASeedOpen  float64 `yaml:"ha_seed_open"` // 0: (open+close)/2 первой свечи
}

type HeikinAshi struct {
	EMABandPct     float64 `yaml:"ema_band_pct"`
	Oversold       float64 `yaml:"oversold"`
	Overbought     float64 `yaml:"overbought"`
	MonitorMaxBars int     `yaml:"monitor_max_bars"`
}

type Bollinger struct {
	UpperEntry float64 `yaml:"upper_entry"`
	LowerEntry float64 `yaml:"lower_entry"`
	LossCutPct float64 `yaml:"loss_cut_pct"`
}

type Tracing struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Config ...
type Config struct {
	ServiceName    string              `yaml:"service_name"`
	LogLevel       string              `yaml:"log_level"`
	Symbol         string              `yaml:"symbol"`
	Interval       string              `yaml:"interval"`
	Leverage       int                 `yaml:"leverage"`
	MarginType     string              `yaml:"margin_type"`
	LoopInterval   time.Duration       `yaml:"loop_interval"`
	TickTimeout    time.Duration       `yaml:"tick_timeout"`
	HeartbeatEvery int                 `yaml:"heartbeat_every"`
	MaxClockSkew   time.Duration       `yaml:"max_clock_skew"`
	Strategy       models.StrategyType `yaml:"strategy"`
	HealthAddr     string              `yaml:"health_addr"`

	Binance    Binance    `yaml:"binance"`
	Telegram   Telegram   `yaml:"telegram"`
	Trading    Trading    `yaml:"trading"`
	Indicators Indicators `yaml:"indicators"`
	HeikinAshi HeikinAshi `yaml:"heikin_ashi"`
	Bollinger  Bollinger  `yaml:"bollinger"`
	Tracing    Tracing    `yaml:"tracing"`
}

// Default возвращает значения по умолчанию: ETHUSDT, плечо 3, ISOLATED, тик раз в минуту.
func Default() Config {
	return Config{
		ServiceName:    "perp_bot",
		LogLevel:       "info",
		Symbol:         "ETHUSDT",
		Interval:       "1h",
		Leverage:       3,
		MarginType:     "ISOLATED",
		LoopInterval:   60 * time.Second,
		TickTimeout:    45 * time.Second,
		HeartbeatEvery: 60,
		MaxClockSkew:   900 * time.Millisecond,
		Strategy:       models.StrategyHeikinAshi,
		HealthAddr:     ":8080",
		Binance: Binance{
			BaseURL:        "https://fapi.binance.com",
			WSURL:          "wss://fstream.binance.com/ws",
			RecvWindow:     5000,
			RequestTimeout: 10 * time.Second,
			RateLimit:      10,
			TickerMaxAge:   5 * time.Second,
		},
		Telegram: Telegram{
			SendTimeout: 15 * time.Second,
			MaxRetries:  3,
		},
		Trading: Trading{
			BalanceFraction: 0.95,
			QtyPrecision:    3,
			PricePrecision:  2,
			MinQty:          0.004,
			MaxSlippage:     5,
			OrderTimeout:    30 * time.Minute,
			Revalidate:      30 * time.Minute,
			TakeProfitPct:   3,
			StopLossPct:     1.5,
			MarketStopLoss:  true,
		},
		Indicators: Indicators{
			History:     500,
			RSIPeriod:   14,
			StochPeriod: 14,
			KPeriod:     3,
			DPeriod:     3,
			EMAPeriod:   200,
			BBPeriod:    20,
			BBWidth:     2,
		},
		HeikinAshi: HeikinAshi{
			EMABandPct:     5,
			Oversold:       20,
			Overbought:     80,
			MonitorMaxBars: 3,
		},
		Bollinger: Bollinger{
			UpperEntry: 1.3,
			LowerEntry: -0.3,
			LossCutPct: 2,
		},
		Tracing: Tracing{
			Host: "localhost",
			Port: 6831,
		},
	}
}

func NewConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	cfg, err := Load(configDir + configFileName)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load читает yaml поверх дефолтов, потом накладывает env. Файл может отсутствовать.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, errors.Wrapf(err, "decode config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "open config %s", path)
	}

	applyEnv(&cfg, newEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func applyEnv(cfg *Config, v *viper.Viper) {
	setString(v, "BINANCE_API_KEY", &cfg.Binance.APIKey)
	setString(v, "BINANCE_API_SECRET", &cfg.Binance.APISecret)
	setString(v, "BINANCE_BASE_URL", &cfg.Binance.BaseURL)
	setString(v, "TELEGRAM_TOKEN", &cfg.Telegram.Token)
	setString(v, "SYMBOL", &cfg.Symbol)
	setString(v, "INTERVAL", &cfg.Interval)
	setString(v, "MARGIN_TYPE", &cfg.MarginType)
	setString(v, "LOG_LEVEL", &cfg.LogLevel)

	if v.IsSet("TELEGRAM_CHAT_ID") {
		cfg.Telegram.ChatID = v.GetInt64("TELEGRAM_CHAT_ID")
	}
	if v.IsSet("LEVERAGE") {
		cfg.Leverage = v.GetInt("LEVERAGE")
	}
	if v.IsSet("LOOP_INTERVAL") {
		cfg.LoopInterval = v.GetDuration("LOOP_INTERVAL")
	}
	if v.IsSet("STRATEGY") {
		cfg.Strategy = models.StrategyType(v.GetString("STRATEGY"))
	}
	if v.IsSet("TRACING_ENABLED") {
		cfg.Tracing.Enabled = v.GetBool("TRACING_ENABLED")
	}
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

// Validate: ошибки конфигурации фатальны, цикл не стартует.
func (c *Config) Validate() error {
	switch {
	case c.Binance.APIKey == "" || c.Binance.APISecret == "":
		return apperr.Configuration("binance api credentials are required")
	case c.Symbol == "":
		return apperr.Configuration("symbol is required")
	case c.Leverage < 1:
		return apperr.Configuration("leverage must be >= 1, got %d", c.Leverage)
	case c.LoopInterval <= 0:
		return apperr.Configuration("loop_interval must be positive")
	case c.Trading.MinQty <= 0:
		return apperr.Configuration("trading.min_qty must be positive")
	case c.Trading.BalanceFraction <= 0 || c.Trading.BalanceFraction > 1:
		return apperr.Configuration("trading.balance_fraction must be in (0,1]")
	}
	if _, ok := helper.IntervalDuration(c.Interval); !ok {
		return apperr.Configuration("unsupported interval %q", c.Interval)
	}
	switch c.MarginType {
	case "ISOLATED", "CROSSED":
	default:
		return apperr.Configuration("margin_type must be ISOLATED or CROSSED, got %q", c.MarginType)
	}
	switch c.Strategy {
	case models.StrategyHeikinAshi, models.StrategyBollinger:
	default:
		return apperr.Configuration("unknown strategy %q", c.Strategy)
	}
	return nil
}

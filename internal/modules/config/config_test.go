package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"perp_bot/internal/models"
	"perp_bot/pkg/apperr"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "values.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadYAMLAndEnv(t *testing.T) {
	p := writeFile(t, `
symbol: BTCUSDT
interval: 5m
strategy: bollinger
loop_interval: 30s
binance:
  api_key: file-key
  api_secret: file-secret
trading:
  order_timeout: 10m
bollinger:
  upper_entry: 1.5
`)
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("LEVERAGE", "5")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "BTCUSDT" || cfg.Interval != "5m" {
		t.Errorf("symbol/interval = %s/%s", cfg.Symbol, cfg.Interval)
	}
	if cfg.Strategy != models.StrategyBollinger {
		t.Errorf("strategy = %s", cfg.Strategy)
	}
	if cfg.LoopInterval != 30*time.Second || cfg.Trading.OrderTimeout != 10*time.Minute {
		t.Errorf("durations = %v %v", cfg.LoopInterval, cfg.Trading.OrderTimeout)
	}
	if cfg.Binance.APIKey != "env-key" || cfg.Binance.APISecret != "file-secret" {
		t.Errorf("credentials = %q %q", cfg.Binance.APIKey, cfg.Binance.APISecret)
	}
	if cfg.Leverage != 5 {
		t.Errorf("leverage = %d", cfg.Leverage)
	}
	// не заданное в файле остаётся дефолтом
	if cfg.Bollinger.LowerEntry != -0.3 || cfg.Bollinger.UpperEntry != 1.5 {
		t.Errorf("bollinger = %+v", cfg.Bollinger)
	}
	if cfg.Trading.MinQty != 0.004 {
		t.Errorf("min qty = %v", cfg.Trading.MinQty)
	}
}

func TestLoadMissingCredentialsIsConfigurationError(t *testing.T) {
	p := writeFile(t, "symbol: ETHUSDT\n")
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")

	_, err := Load(p)
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Binance.APIKey, base.Binance.APISecret = "k", "s"

	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero leverage", func(c *Config) { c.Leverage = 0 }, false},
		{"bad strategy", func(c *Config) { c.Strategy = "grid" }, false},
		{"bad interval", func(c *Config) { c.Interval = "7m" }, false},
		{"bad margin", func(c *Config) { c.MarginType = "PORTFOLIO" }, false},
		{"fraction above one", func(c *Config) { c.Trading.BalanceFraction = 1.5 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("Validate() = %v, ok want %v", err, tc.ok)
			}
		})
	}
}

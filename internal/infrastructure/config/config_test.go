package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[exchange.kucoin]
enabled = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.TickIntervalSec != 1 {
		t.Errorf("TickIntervalSec = %d, want 1", cfg.App.TickIntervalSec)
	}
	if cfg.App.HistoryLimit != 300 {
		t.Errorf("HistoryLimit = %d, want 300", cfg.App.HistoryLimit)
	}
	if cfg.Exchange.Kucoin.ApiURL != "https://api.kucoin.com" {
		t.Errorf("kucoin api_url default = %q", cfg.Exchange.Kucoin.ApiURL)
	}
	if cfg.Storage.Redis.Prefix != "tickwatch" {
		t.Errorf("redis prefix default = %q", cfg.Storage.Redis.Prefix)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
[app]
tick_interval_sec = 2
history_limit = 50

[exchange.mexc]
enabled = true

[[tickers]]
exchange = "mexc"
symbol = "BTCUSDT"

[[custom]]
exchange = "bitstamp"
symbol = "btcusd"
ws_url = "wss://ws.bitstamp.net"
subscribe_msg = '{"event":"bts:subscribe"}'
  [custom.extract]
  price_path = "data.price"

[[calculated]]
name = "spread"
formula = "a - b"

[[alerts]]
ticker = "spread"
condition = "price > 50"
message = "hit {price:.4f}"
min_interval_sec = 300
max_activations = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Tickers) != 1 || cfg.Tickers[0].Symbol != "BTCUSDT" {
		t.Errorf("tickers = %+v", cfg.Tickers)
	}
	if len(cfg.Custom) != 1 || cfg.Custom[0].Extract.PricePath != "data.price" {
		t.Errorf("custom = %+v", cfg.Custom)
	}
	if len(cfg.Alerts) != 1 {
		t.Fatalf("alerts = %+v", cfg.Alerts)
	}
	a := cfg.Alerts[0]
	if a.MinIntervalSec != 300 || a.MaxActivations == nil || *a.MaxActivations != 3 {
		t.Errorf("alert = %+v", a)
	}

	urls := cfg.EnabledExchanges()
	if len(urls) != 1 || urls["mexc"] == "" {
		t.Errorf("EnabledExchanges = %v", urls)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"ticker missing symbol", "[[tickers]]\nexchange = \"mexc\"\n"},
		{"calculated missing formula", "[[calculated]]\nname = \"x\"\n"},
		{"alert missing condition", "[[alerts]]\nticker = \"x\"\n"},
		{"alert negative interval", "[[alerts]]\nticker = \"x\"\ncondition = \"price > 1\"\nmin_interval_sec = -1\n"},
		{"custom missing price path", "[[custom]]\nexchange = \"x\"\nws_url = \"wss://x\"\n"},
		{"sqlite without path", "[storage]\nenabled = true\n[storage.sqlite]\nenabled = true\n"},
		{"telegram without token", "[notify.telegram]\nenabled = true\n"},
	}
	for _, c := range cases {
		path := writeConfig(t, c.body)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"tickwatch/internal/application/port"
)

type ExchangeConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
	ApiURL  string `toml:"api_url"` // kucoin token bootstrap
}

type TickerConfig struct {
	Exchange string `toml:"exchange"`
	Symbol   string `toml:"symbol"`
}

type CalculatedConfig struct {
	Name    string `toml:"name"`
	Formula string `toml:"formula"`
}

type AlertConfig struct {
	Ticker         string `toml:"ticker"`
	Condition      string `toml:"condition"`
	Message        string `toml:"message"`
	MinIntervalSec int64  `toml:"min_interval_sec"`
	MaxActivations *int   `toml:"max_activations"`
}

type Config struct {
	App struct {
		TickIntervalSec int `toml:"tick_interval_sec"`
		HistoryLimit    int `toml:"history_limit"`
	} `toml:"app"`

	Exchange struct {
		Kucoin ExchangeConfig `toml:"kucoin"`
		Mexc   ExchangeConfig `toml:"mexc"`
		Gateio ExchangeConfig `toml:"gateio"`
	} `toml:"exchange"`

	Tickers    []TickerConfig     `toml:"tickers"`
	Custom     []port.FeedSpec    `toml:"custom"`
	Calculated []CalculatedConfig `toml:"calculated"`
	Alerts     []AlertConfig      `toml:"alerts"`

	Storage struct {
		Enabled bool `toml:"enabled"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Redis struct {
			Enabled    bool   `toml:"enabled"`
			Addr       string `toml:"addr"`
			Password   string `toml:"password"`
			DB         int    `toml:"db"`
			Prefix     string `toml:"prefix"`
			TTLSeconds int    `toml:"ttl_seconds"`
		} `toml:"redis"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`

	Notify struct {
		Telegram struct {
			Enabled bool   `toml:"enabled"`
			Token   string `toml:"token"`
			ChatID  string `toml:"chat_id"`
		} `toml:"telegram"`
	} `toml:"notify"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.TickIntervalSec <= 0 {
		cfg.App.TickIntervalSec = 1
	}
	if cfg.App.HistoryLimit <= 0 {
		cfg.App.HistoryLimit = 300
	}
	if cfg.Exchange.Kucoin.ApiURL == "" {
		cfg.Exchange.Kucoin.ApiURL = "https://api.kucoin.com"
	}
	if cfg.Exchange.Mexc.WsURL == "" {
		cfg.Exchange.Mexc.WsURL = "wss://wbs.mexc.com/ws"
	}
	if cfg.Exchange.Gateio.WsURL == "" {
		cfg.Exchange.Gateio.WsURL = "wss://api.gateio.ws/ws/v4/"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "tickwatch"
	}
}

func validate(cfg *Config) error {
	for i, t := range cfg.Tickers {
		if strings.TrimSpace(t.Exchange) == "" || strings.TrimSpace(t.Symbol) == "" {
			return fmt.Errorf("tickers[%d]: exchange and symbol are required", i)
		}
	}
	for i, c := range cfg.Calculated {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Formula) == "" {
			return fmt.Errorf("calculated[%d]: name and formula are required", i)
		}
	}
	for i, a := range cfg.Alerts {
		if strings.TrimSpace(a.Ticker) == "" || strings.TrimSpace(a.Condition) == "" {
			return fmt.Errorf("alerts[%d]: ticker and condition are required", i)
		}
		if a.MinIntervalSec < 0 {
			return fmt.Errorf("alerts[%d]: min_interval_sec must be >= 0", i)
		}
	}
	for i, c := range cfg.Custom {
		if strings.TrimSpace(c.Exchange) == "" || strings.TrimSpace(c.WsURL) == "" {
			return fmt.Errorf("custom[%d]: exchange and ws_url are required", i)
		}
		if strings.TrimSpace(c.Extract.PricePath) == "" {
			return fmt.Errorf("custom[%d]: extract.price_path is required", i)
		}
	}
	if cfg.Storage.Enabled && cfg.Storage.SQLite.Enabled && strings.TrimSpace(cfg.Storage.SQLite.Path) == "" {
		return errors.New("storage.sqlite.path is empty but sqlite enabled")
	}
	if cfg.Storage.Enabled && cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn is empty but postgres enabled")
	}
	if cfg.Storage.Enabled && cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr is empty but redis enabled")
	}
	if cfg.Notify.Telegram.Enabled {
		if strings.TrimSpace(cfg.Notify.Telegram.Token) == "" || strings.TrimSpace(cfg.Notify.Telegram.ChatID) == "" {
			return errors.New("notify.telegram.token/chat_id empty but telegram enabled")
		}
	}
	return nil
}

// EnabledExchanges returns name -> endpoint for every enabled built-in
// exchange (the kucoin endpoint is its API base URL).
func (cfg *Config) EnabledExchanges() map[string]string {
	out := make(map[string]string)
	if cfg.Exchange.Kucoin.Enabled {
		out["kucoin"] = cfg.Exchange.Kucoin.ApiURL
	}
	if cfg.Exchange.Mexc.Enabled {
		out["mexc"] = cfg.Exchange.Mexc.WsURL
	}
	if cfg.Exchange.Gateio.Enabled {
		out["gateio"] = cfg.Exchange.Gateio.WsURL
	}
	return out
}

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/application/usecase/tracker"
	"tickwatch/internal/infrastructure/config"
	"tickwatch/internal/infrastructure/container"
	"tickwatch/internal/infrastructure/exchange/custom"
	_ "tickwatch/internal/infrastructure/exchange/gateio"
	_ "tickwatch/internal/infrastructure/exchange/kucoin"
	_ "tickwatch/internal/infrastructure/exchange/mexc"
	"tickwatch/internal/infrastructure/logger"
	"tickwatch/internal/infrastructure/notify/console"
	"tickwatch/internal/infrastructure/notify/telegram"
	"tickwatch/internal/infrastructure/pricefeed"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Setup(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Close()

	var notifier port.Notifier
	if cfg.Notify.Telegram.Enabled {
		notifier = telegram.New(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
	} else {
		log.Warn().Msg("telegram disabled, alert notifications go to the log")
		notifier = console.New()
	}

	// built-in feeds come from the registry; only enabled exchanges are wired
	factories := make(map[string]port.FeedFactory)
	urls := cfg.EnabledExchanges()
	for name := range urls {
		factory, ok := pricefeed.Get(name)
		if !ok {
			log.Fatal().Str("exchange", name).Msg("no feed factory registered")
		}
		factories[name] = factory
	}

	svc := tracker.NewService(tracker.ServiceDeps{
		FeedFactories: factories,
		FeedURLs:      urls,
		CustomFeed:    func(spec port.FeedSpec) port.PriceFeed { return custom.New(spec) },
		Notifier:      notifier,
		Repo:          c.Repo(),
		TickInterval:  time.Duration(cfg.App.TickIntervalSec) * time.Second,
		HistoryLimit:  cfg.App.HistoryLimit,
	})

	seed(svc, cfg)

	log.Info().
		Str("config", *configPath).
		Int("exchanges", len(urls)).
		Int("tickers", len(cfg.Tickers)+len(cfg.Custom)).
		Int("calculated", len(cfg.Calculated)).
		Int("alerts", len(cfg.Alerts)).
		Msg("tickwatch started")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("tracker service exited")
	}
}

// seed registers the tickers, calculated tickers and alerts declared in
// config. Individual failures are logged and skipped so one bad entry does
// not keep the rest of the system down.
func seed(svc *tracker.Service, cfg *config.Config) {
	for _, t := range cfg.Tickers {
		if err := svc.AddTicker(t.Exchange, t.Symbol); err != nil {
			log.Error().Err(err).Str("exchange", t.Exchange).Str("symbol", t.Symbol).Msg("add ticker failed")
		}
	}
	for _, spec := range cfg.Custom {
		if err := svc.AddCustomTicker(spec); err != nil {
			log.Error().Err(err).Str("exchange", spec.Exchange).Str("symbol", spec.Symbol).Msg("add custom ticker failed")
		}
	}
	for _, ct := range cfg.Calculated {
		if err := svc.AddCalculated(ct.Name, ct.Formula); err != nil {
			log.Error().Err(err).Str("name", ct.Name).Msg("add calculated ticker failed")
		}
	}
	for _, a := range cfg.Alerts {
		if err := svc.AddAlert(a.Ticker, a.Condition, a.Message, a.MinIntervalSec, a.MaxActivations); err != nil {
			log.Error().Err(err).Str("ticker", a.Ticker).Msg("add alert failed")
		}
	}
}

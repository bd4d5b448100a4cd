package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
)

// ServiceDeps wires the tracker to its collaborators.
type ServiceDeps struct {
	// FeedFactories maps exchange name to its feed constructor; FeedURLs maps
	// the same names to their configured endpoint.
	FeedFactories map[string]port.FeedFactory
	FeedURLs      map[string]string
	// CustomFeed builds a connector for a user-supplied exchange spec.
	CustomFeed func(port.FeedSpec) port.PriceFeed

	Notifier port.Notifier
	Repo     port.Repository

	TickInterval time.Duration // evaluation cadence, default 1s
	HistoryLimit int           // in-memory points per ticker
}

type connector struct {
	exchange string
	symbol   string
	cancel   context.CancelFunc
}

// Service is the live ingestion-and-evaluation engine. Connectors stream
// ticks into the price store; once per tick interval the scheduler evaluates
// calculated tickers in dependency order, runs the alert pass over the
// updated snapshot and persists changed prices. Management operations are
// safe to call concurrently with Run.
type Service struct {
	deps   ServiceDeps
	store  *Store
	calc   *CalcBook
	alerts *AlertBook

	ticks chan port.Tick

	mu         sync.Mutex
	connectors map[string]*connector

	baseCtx    context.Context
	baseCancel context.CancelFunc

	lastPersisted map[string]float64

	now func() int64
}

func NewService(deps ServiceDeps) *Service {
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		deps:          deps,
		store:         NewStore(deps.HistoryLimit),
		calc:          NewCalcBook(),
		alerts:        NewAlertBook(),
		ticks:         make(chan port.Tick, 1024),
		connectors:    make(map[string]*connector),
		baseCtx:       ctx,
		baseCancel:    cancel,
		lastPersisted: make(map[string]float64),
		now:           func() int64 { return time.Now().Unix() },
	}
}

// Run drives the engine until ctx is canceled: it drains connector ticks into
// the store and fires one evaluation pass per tick interval.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.deps.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.baseCancel()
			return ctx.Err()
		case t := <-s.ticks:
			s.handleTick(t)
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// handleTick writes one feed tick into the store. Ticks for keys whose
// connector has been removed are dropped, so a removal is final even with
// frames still in flight.
func (s *Service) handleTick(t port.Tick) {
	key := MakeKey(t.Exchange, t.Symbol)

	s.mu.Lock()
	_, registered := s.connectors[key]
	s.mu.Unlock()
	if !registered {
		return
	}
	s.store.Upsert(Tick{Key: key, Price: t.Price, Ts: t.Ts})
}

// pass is one scheduler tick: snapshot, calculated tickers in dependency
// order, alert evaluation over the updated values, then changed-price
// persistence. Failures are isolated per entity.
func (s *Service) pass(ctx context.Context) {
	now := s.now()

	snap := s.store.Snapshot()
	vars := make(map[string]float64, len(snap))
	for k, t := range snap {
		vars[k] = t.Price
	}

	s.calc.EvalAll(vars, now, func(name string, value float64) {
		s.store.Upsert(Tick{Key: name, Price: value, Ts: now})
	})

	s.alerts.Evaluate(vars, now, func(ticker, message string, price float64) {
		s.dispatch(ticker, message, now)
	})

	s.persistChanged(ctx)
}

// dispatch sends one notification without blocking the evaluation pass.
func (s *Service) dispatch(ticker, message string, ts int64) {
	log.Info().Str("ticker", ticker).Str("message", message).Msg("alert triggered")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if s.deps.Notifier != nil {
			if err := s.deps.Notifier.Send(ctx, message); err != nil {
				log.Error().Str("ticker", ticker).Err(err).Msg("notification failed")
			}
		}
		if s.deps.Repo != nil {
			if err := s.deps.Repo.InsertAlertEvent(ctx, ts, ticker, message); err != nil {
				log.Error().Str("ticker", ticker).Err(err).Msg("alert event persist failed")
			}
		}
	}()
}

// persistChanged appends prices that moved since the last persisted value,
// mirroring the store into the repository for charting.
func (s *Service) persistChanged(ctx context.Context) {
	if s.deps.Repo == nil {
		return
	}
	snap := s.store.Snapshot()

	// s.mu also guards lastPersisted against concurrent removals
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range snap {
		last, seen := s.lastPersisted[key]
		if seen && last == t.Price {
			continue
		}
		if err := s.deps.Repo.InsertPriceTick(ctx, key, t.Price, t.Ts); err != nil {
			log.Error().Str("ticker", key).Err(err).Msg("price tick persist failed")
			continue
		}
		if err := s.deps.Repo.UpsertLatestPrice(ctx, key, t.Price, t.Ts); err != nil {
			log.Error().Str("ticker", key).Err(err).Msg("latest price persist failed")
		}
		s.lastPersisted[key] = t.Price
	}
}

// management: raw tickers

// AddTicker starts a connector for one (exchange, symbol) pair on a built-in
// exchange. The derived key must not collide with any existing ticker.
func (s *Service) AddTicker(exchange, symbol string) error {
	ex := strings.ToLower(strings.TrimSpace(exchange))
	factory, ok := s.deps.FeedFactories[ex]
	if !ok {
		return fmt.Errorf("%q: %w", exchange, ErrUnknownExchange)
	}
	feed := factory(s.deps.FeedURLs[ex])
	return s.startConnector(ex, symbol, feed)
}

// AddCustomTicker starts a connector for a user-supplied exchange spec.
func (s *Service) AddCustomTicker(spec port.FeedSpec) error {
	if s.deps.CustomFeed == nil {
		return fmt.Errorf("custom exchanges: %w", ErrUnknownExchange)
	}
	if strings.TrimSpace(spec.WsURL) == "" {
		return fmt.Errorf("custom exchange %q: ws_url is empty", spec.Exchange)
	}
	if strings.TrimSpace(spec.Extract.PricePath) == "" {
		return fmt.Errorf("custom exchange %q: extract.price_path is empty", spec.Exchange)
	}
	return s.startConnector(spec.Exchange, spec.Symbol, s.deps.CustomFeed(spec))
}

func (s *Service) startConnector(exchange, symbol string, feed port.PriceFeed) error {
	key := MakeKey(exchange, symbol)

	// s.mu serializes the duplicate check across both namespaces: a
	// concurrent AddCalculated holds it across its own check and
	// registration, so exactly one claim on a key can win.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calc.Has(key) {
		return fmt.Errorf("%q: %w", key, ErrDuplicateKey)
	}
	if _, exists := s.connectors[key]; exists {
		return fmt.Errorf("%q: %w", key, ErrDuplicateKey)
	}

	cctx, cancel := context.WithCancel(s.baseCtx)
	ch, err := feed.Subscribe(cctx, []string{symbol})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", key, err)
	}
	s.connectors[key] = &connector{exchange: exchange, symbol: symbol, cancel: cancel}

	go func() {
		for t := range ch {
			select {
			case s.ticks <- t:
			case <-cctx.Done():
				return
			}
		}
	}()

	log.Info().Str("key", key).Str("exchange", exchange).Str("symbol", symbol).Msg("ticker added")
	return nil
}

// RemoveTicker stops the connector for (exchange, symbol) and drops its
// price state. Alerts and formulas referencing the key are kept; they go
// stale rather than being deleted.
func (s *Service) RemoveTicker(exchange, symbol string) error {
	key := MakeKey(exchange, symbol)

	s.mu.Lock()
	c, exists := s.connectors[key]
	if exists {
		delete(s.connectors, key)
		delete(s.lastPersisted, key)
	}
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("ticker %q: %w", key, ErrNotFound)
	}
	c.cancel()
	s.store.Remove(key)
	log.Info().Str("key", key).Msg("ticker removed")
	return nil
}

// management: calculated tickers

// AddCalculated registers a calculated ticker. Name collisions with raw
// tickers are rejected the same way as duplicates within the book.
func (s *Service) AddCalculated(name, formula string) error {
	key := NormalizeKey(name)

	// check and registration stay under s.mu so a concurrent raw add of
	// the same key cannot slip in between (lock order: s.mu then the
	// calc book mutex, same as startConnector)
	s.mu.Lock()
	if _, exists := s.connectors[key]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", key, ErrDuplicateKey)
	}
	err := s.calc.Add(key, formula)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	log.Info().Str("name", key).Str("formula", formula).Msg("calculated ticker added")
	return nil
}

// RemoveCalculated deletes a calculated ticker and its price state.
func (s *Service) RemoveCalculated(name string) error {
	key := NormalizeKey(name)
	if err := s.calc.Remove(key); err != nil {
		return err
	}
	s.store.Remove(key)
	s.mu.Lock()
	delete(s.lastPersisted, key)
	s.mu.Unlock()
	log.Info().Str("name", key).Msg("calculated ticker removed")
	return nil
}

// management: alerts

func (s *Service) AddAlert(ticker, condition, message string, minInterval int64, maxActivations *int) error {
	return s.alerts.Add(ticker, condition, message, minInterval, maxActivations)
}

func (s *Service) RemoveAlert(ticker, condition string) error {
	return s.alerts.Remove(ticker, condition)
}

func (s *Service) PatchAlert(ticker, condition string, patch AlertPatch) error {
	return s.alerts.Patch(ticker, condition, patch)
}

// query surface (polled by the presentation layer)

// CurrentPrices returns the latest tick per key, calculated tickers included.
func (s *Service) CurrentPrices() map[string]Tick {
	return s.store.Snapshot()
}

// History returns the in-memory history for one key, oldest first.
func (s *Service) History(key string) []Tick {
	return s.store.History(NormalizeKey(key))
}

// PersistedHistory reads history from the repository, for windows beyond the
// in-memory ring.
func (s *Service) PersistedHistory(ctx context.Context, key string, fromTs int64, limit int) ([]port.PricePoint, error) {
	if s.deps.Repo == nil {
		return nil, nil
	}
	return s.deps.Repo.QueryPriceHistory(ctx, NormalizeKey(key), fromTs, limit)
}

// Tickers lists subscribed symbols per exchange plus calculated ticker names
// under the "calculated" pseudo-exchange.
func (s *Service) Tickers() map[string][]string {
	out := make(map[string][]string)

	s.mu.Lock()
	for _, c := range s.connectors {
		out[c.exchange] = append(out[c.exchange], c.symbol)
	}
	s.mu.Unlock()

	for name := range s.calc.Formulas() {
		out["calculated"] = append(out["calculated"], name)
	}
	return out
}

// Alerts returns all alert definitions with their trigger bookkeeping.
func (s *Service) Alerts() []Alert {
	return s.alerts.List()
}

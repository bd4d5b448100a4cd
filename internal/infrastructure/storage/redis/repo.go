package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tickwatch/internal/application/port"
)

// Repo mirrors latest prices into a Redis hash and fans alert events out over
// a stream plus pub/sub, for external consumers (dashboards, bots). It does
// not keep history; pair it with sqlite/postgres in the composite repo.
type Repo struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	keyLatest  string // prefix + ":latest"
	alertsKey  string // prefix + ":alerts" (stream)
	alertsChan string // prefix + ":alerts:pub"
}

type latestPrice struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	return &Repo{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		keyLatest:  prefix + ":latest",
		alertsKey:  prefix + ":alerts",
		alertsChan: prefix + ":alerts:pub",
	}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, ticker string, price float64, ts int64) error {
	lp := latestPrice{Ticker: ticker, Price: price, Ts: ts}
	b, _ := json.Marshal(lp)

	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, ticker, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertPriceTick(ctx context.Context, ticker string, price float64, ts int64) error {
	// history lives in sqlite/postgres
	return nil
}

func (r *Repo) QueryPriceHistory(ctx context.Context, ticker string, fromTs int64, limit int) ([]port.PricePoint, error) {
	return nil, nil
}

func (r *Repo) InsertAlertEvent(ctx context.Context, ts int64, ticker, message string) error {
	// 1) Stream: XADD <stream> * ts ticker message
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.alertsKey,
		Values: map[string]any{
			"ts":      ts,
			"ticker":  ticker,
			"message": message,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	b, _ := json.Marshal(map[string]any{"ts": ts, "ticker": ticker, "message": message})
	return r.rdb.Publish(ctx, r.alertsChan, string(b)).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)

// Package custom implements connectors for user-supplied exchanges. The
// connection behavior is fully declarative (port.FeedSpec): a websocket URL,
// fixed subscribe/ping payloads and a field-path extraction rule. No
// user-provided code ever runs.
package custom

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/exchange"
)

// Feed streams prices from a custom exchange spec.
type Feed struct {
	spec port.FeedSpec
}

func New(spec port.FeedSpec) *Feed {
	return &Feed{spec: spec}
}

func (f *Feed) Name() string { return strings.ToLower(strings.TrimSpace(f.spec.Exchange)) }

// Subscribe ignores the symbols argument: a custom spec is bound to exactly
// one symbol at registration time.
func (f *Feed) Subscribe(ctx context.Context, _ []string) (<-chan port.Tick, error) {
	out := make(chan port.Tick, 1024)
	go f.run(ctx, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, out chan<- port.Tick) {
	defer close(out)

	exchange.Run(ctx, f.Name(), func(ctx context.Context, ready func()) error {
		conn, err := exchange.Dial(ctx, f.spec.WsURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if f.spec.SubscribeMsg != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f.spec.SubscribeMsg)); err != nil {
				return err
			}
		}
		ready()

		var ping exchange.Ping
		if f.spec.PingMsg != "" {
			msg := []byte(f.spec.PingMsg)
			ping.Message = func() []byte { return msg }
		}
		if f.spec.PingIntervalSec > 0 {
			ping.Interval = time.Duration(f.spec.PingIntervalSec) * time.Second
		}

		return exchange.ReadLoop(ctx, conn, ping, func(b []byte) {
			price, ts, err := extractPrice(f.spec.Extract, b)
			if err != nil {
				// frames that don't match the extraction rule (acks,
				// heartbeats, malformed data) are dropped
				log.Debug().Str("feed", f.Name()).Err(err).Msg("frame dropped")
				return
			}
			if ts == 0 {
				ts = time.Now().Unix()
			}
			out <- port.Tick{Exchange: f.spec.Exchange, Symbol: f.spec.Symbol, Price: price, Ts: ts}
		})
	})
}

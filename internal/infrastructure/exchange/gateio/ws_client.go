package gateio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/exchange"
)

const Name = "gateio"

// TickerFeed streams Gate.io spot ticker prices.
type TickerFeed struct {
	wsURL string // e.g. wss://api.gateio.ws/ws/v4/
}

func New(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return Name }

type subReq struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

type tickerMsg struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Result  struct {
		CurrencyPair string `json:"currency_pair"`
		Last         string `json:"last"`
	} `json:"result"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("gateio ws_url empty")
	}

	pairs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pairs = append(pairs, s)
	}
	if len(pairs) == 0 {
		return nil, errors.New("no valid symbols for gateio")
	}

	out := make(chan port.Tick, 1024)
	go f.run(ctx, pairs, out)
	return out, nil
}

func (f *TickerFeed) run(ctx context.Context, pairs []string, out chan<- port.Tick) {
	defer close(out)

	exchange.Run(ctx, Name, func(ctx context.Context, ready func()) error {
		conn, err := exchange.Dial(ctx, f.wsURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		sub := subReq{
			Time:    time.Now().Unix(),
			Channel: "spot.tickers",
			Event:   "subscribe",
			Payload: pairs,
		}
		if err := conn.WriteJSON(sub); err != nil {
			return err
		}
		ready()

		ping := exchange.Ping{
			Message: func() []byte {
				return []byte(fmt.Sprintf(`{"time":%d,"channel":"spot.ping"}`, time.Now().UnixMilli()))
			},
		}
		return exchange.ReadLoop(ctx, conn, ping, func(b []byte) {
			var msg tickerMsg
			if e := json.Unmarshal(b, &msg); e != nil {
				log.Debug().Str("feed", Name).Err(e).Msg("json unmarshal failed")
				return
			}
			if msg.Channel != "spot.tickers" || msg.Event != "update" {
				return
			}
			sym := strings.TrimSpace(msg.Result.CurrencyPair)
			if sym == "" || msg.Result.Last == "" {
				return
			}
			px, e := strconv.ParseFloat(msg.Result.Last, 64)
			if e != nil {
				log.Debug().Str("feed", Name).Str("price", msg.Result.Last).Msg("bad price, frame dropped")
				return
			}
			out <- port.Tick{Exchange: Name, Symbol: sym, Price: px, Ts: time.Now().Unix()}
		})
	})
}

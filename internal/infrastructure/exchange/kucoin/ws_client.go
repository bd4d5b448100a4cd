package kucoin

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/exchange"
)

const Name = "kucoin"

// TickerFeed streams KuCoin spot ticker prices. KuCoin hands out its
// websocket endpoint via a REST token bootstrap, so the feed is constructed
// with the API base URL and resolves the endpoint on every (re)connect.
type TickerFeed struct {
	apiURL string // e.g. https://api.kucoin.com
}

func New(apiURL string) *TickerFeed {
	return &TickerFeed{apiURL: strings.TrimSpace(apiURL)}
}

func (f *TickerFeed) Name() string { return Name }

type subReq struct {
	ID             int64  `json:"id"`
	Type           string `json:"type"`
	Topic          string `json:"topic"`
	PrivateChannel bool   `json:"privateChannel"`
	Response       bool   `json:"response"`
}

type tickerMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Data  struct {
		Price string `json:"price"`
	} `json:"data"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	out := make(chan port.Tick, 1024)
	go f.run(ctx, symbols, out)
	return out, nil
}

func (f *TickerFeed) run(ctx context.Context, symbols []string, out chan<- port.Tick) {
	defer close(out)

	topic := "/market/ticker:" + strings.Join(symbols, ",")

	exchange.Run(ctx, Name, func(ctx context.Context, ready func()) error {
		wsURL, err := wsEndpoint(ctx, f.apiURL)
		if err != nil {
			return err
		}

		conn, err := exchange.Dial(ctx, wsURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		sub := subReq{
			ID:       time.Now().UnixMilli(),
			Type:     "subscribe",
			Topic:    topic,
			Response: true,
		}
		if err := conn.WriteJSON(sub); err != nil {
			return err
		}
		ready()

		ping := exchange.Ping{
			Message: func() []byte {
				b, _ := json.Marshal(map[string]any{"id": time.Now().UnixMilli(), "type": "ping"})
				return b
			},
		}
		return exchange.ReadLoop(ctx, conn, ping, func(b []byte) {
			var msg tickerMsg
			if e := json.Unmarshal(b, &msg); e != nil {
				log.Debug().Str("feed", Name).Err(e).Msg("json unmarshal failed")
				return
			}
			if msg.Type != "message" || msg.Data.Price == "" {
				return
			}
			// topic is "/market/ticker:BTC-USDT"
			i := strings.LastIndexByte(msg.Topic, ':')
			if i < 0 {
				return
			}
			sym := msg.Topic[i+1:]
			px, e := strconv.ParseFloat(msg.Data.Price, 64)
			if e != nil {
				log.Debug().Str("feed", Name).Str("price", msg.Data.Price).Msg("bad price, frame dropped")
				return
			}
			out <- port.Tick{Exchange: Name, Symbol: sym, Price: px, Ts: time.Now().Unix()}
		})
	})
}

package mexc

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/exchange"
)

const Name = "mexc"

// TickerFeed streams MEXC spot miniTicker prices.
type TickerFeed struct {
	wsURL string // e.g. wss://wbs.mexc.com/ws
}

func New(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return Name }

type subReq struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

type miniTickerMsg struct {
	Channel string `json:"c"`
	Data    struct {
		Price string `json:"p"`
	} `json:"d"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	if f.wsURL == "" {
		return nil, errors.New("mexc ws_url empty")
	}

	params := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		params = append(params, "spot@public.miniTicker.v3.api@"+s+"@UTC+2")
	}
	if len(params) == 0 {
		return nil, errors.New("no valid symbols for mexc")
	}

	out := make(chan port.Tick, 1024)
	go f.run(ctx, params, out)
	return out, nil
}

func (f *TickerFeed) run(ctx context.Context, params []string, out chan<- port.Tick) {
	defer close(out)

	exchange.Run(ctx, Name, func(ctx context.Context, ready func()) error {
		conn, err := exchange.Dial(ctx, f.wsURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.WriteJSON(subReq{Method: "SUBSCRIPTION", Params: params}); err != nil {
			return err
		}
		ready()

		ping := exchange.Ping{
			Message: func() []byte { return []byte(`{"method":"PING"}`) },
		}
		return exchange.ReadLoop(ctx, conn, ping, func(b []byte) {
			var msg miniTickerMsg
			if e := json.Unmarshal(b, &msg); e != nil {
				log.Debug().Str("feed", Name).Err(e).Msg("json unmarshal failed")
				return
			}
			if !strings.Contains(msg.Channel, "spot@public.miniTicker") || msg.Data.Price == "" {
				return
			}
			// channel is "spot@public.miniTicker.v3.api@BTCUSDT@UTC+2"
			parts := strings.Split(msg.Channel, "@")
			if len(parts) < 2 {
				return
			}
			sym := parts[len(parts)-2]
			px, e := strconv.ParseFloat(msg.Data.Price, 64)
			if e != nil {
				log.Debug().Str("feed", Name).Str("price", msg.Data.Price).Msg("bad price, frame dropped")
				return
			}
			out <- port.Tick{Exchange: Name, Symbol: sym, Price: px, Ts: time.Now().Unix()}
		})
	})
}

package port

import "context"

// Tick is one normalized price observation from an exchange feed.
type Tick struct {
	Exchange string  // feed name, e.g. "kucoin"
	Symbol   string  // exchange-native symbol, e.g. "BTC-USDT"
	Price    float64 // last traded price
	Ts       int64   // unix seconds, assigned on arrival
}

// PriceFeed is one live exchange subscription. Subscribe starts the feed's
// connect/reconnect loop and returns the tick channel; the channel is closed
// when ctx is canceled.
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context, symbols []string) (<-chan Tick, error)
}

// FeedFactory builds a PriceFeed for one exchange. The url parameter is the
// exchange websocket endpoint, except for exchanges that bootstrap their
// endpoint over REST (kucoin), where it is the API base URL.
type FeedFactory func(url string) PriceFeed

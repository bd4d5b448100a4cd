package kucoin

import (
	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/pricefeed"
)

func init() {
	pricefeed.Register(Name, func(url string) port.PriceFeed {
		return New(url)
	})
}

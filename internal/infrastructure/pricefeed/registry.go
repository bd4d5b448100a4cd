// Package pricefeed is the registry of built-in exchange feed factories.
// Exchange packages self-register from init(); main blank-imports them.
package pricefeed

import (
	"tickwatch/internal/application/port"

	"github.com/rs/zerolog/log"
)

var registry = make(map[string]port.FeedFactory)

// Register adds a feed factory for an exchange name.
func Register(exchangeName string, factory port.FeedFactory) {
	if factory == nil {
		log.Warn().Str("exchange", exchangeName).Msg("invalid price feed factory")
		return
	}
	if _, exists := registry[exchangeName]; exists {
		log.Warn().Str("exchange", exchangeName).Msg("price feed factory already registered, overwriting")
	}
	registry[exchangeName] = factory
	log.Debug().Str("exchange", exchangeName).Msg("price feed factory registered")
}

// Get returns the registered factory for an exchange name.
func Get(exchangeName string) (port.FeedFactory, bool) {
	factory, ok := registry[exchangeName]
	return factory, ok
}

// Names returns all registered exchange names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

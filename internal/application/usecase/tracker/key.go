package tracker

import "strings"

// keyReplacer maps symbol punctuation to "_" so that every ticker key is a
// valid formula identifier: "kucoin_BTC-USDT" -> "kucoin_btc_usdt".
var keyReplacer = strings.NewReplacer(",", "_", ".", "_", "!", "_", ":", "_", "-", "_")

// NormalizeKey canonicalizes a ticker key. Applied to every key entering the
// system, so lookups, formulas and alerts all agree on spelling.
func NormalizeKey(key string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(key)))
}

// MakeKey builds the canonical key for an (exchange, symbol) pair.
func MakeKey(exchange, symbol string) string {
	return NormalizeKey(exchange + "_" + symbol)
}

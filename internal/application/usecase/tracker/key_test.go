package tracker

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC-USDT", "btc_usdt"},
		{"kucoin_BTC-USDT", "kucoin_btc_usdt"},
		{"a.b,c!d:e", "a_b_c_d_e"},
		{"  spread_btc  ", "spread_btc"},
		{"BTCUSDT", "btcusdt"},
	}
	for _, c := range cases {
		if got := NormalizeKey(c.in); got != c.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMakeKey(t *testing.T) {
	if got := MakeKey("KuCoin", "BTC-USDT"); got != "kucoin_btc_usdt" {
		t.Errorf("MakeKey = %q, want kucoin_btc_usdt", got)
	}
	if got := MakeKey("gateio", "BTC_USDT"); got != "gateio_btc_usdt" {
		t.Errorf("MakeKey = %q, want gateio_btc_usdt", got)
	}
}

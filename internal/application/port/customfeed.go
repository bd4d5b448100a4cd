package port

// ExtractSpec declares how to pull a price out of a decoded JSON frame.
// Paths are dot-separated; numeric segments index into arrays
// (e.g. "data.instances.0.price"). Values may be JSON numbers or numeric
// strings. Scale, when non-zero, multiplies the extracted price.
type ExtractSpec struct {
	PricePath string  `toml:"price_path"`
	TsPath    string  `toml:"ts_path"` // optional; unix seconds or millis
	Scale     float64 `toml:"scale"`
}

// FeedSpec describes a user-supplied custom exchange connection. It is the
// declarative replacement for arbitrary extraction code: the only things a
// custom exchange can do are send fixed subscribe/ping payloads and read
// fields out of incoming frames.
type FeedSpec struct {
	Exchange        string      `toml:"exchange"`
	Symbol          string      `toml:"symbol"`
	WsURL           string      `toml:"ws_url"`
	SubscribeMsg    string      `toml:"subscribe_msg"` // raw text frame sent after connect
	PingMsg         string      `toml:"ping_msg"`      // optional raw text ping frame
	PingIntervalSec int         `toml:"ping_interval_sec"`
	Extract         ExtractSpec `toml:"extract"`
}

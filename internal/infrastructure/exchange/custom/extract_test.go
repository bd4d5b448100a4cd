package custom

import (
	"testing"

	"tickwatch/internal/application/port"
)

func TestExtractPrice(t *testing.T) {
	frame := []byte(`{"data":{"price":"50123.45","timestamp":1700000000123}}`)
	spec := port.ExtractSpec{PricePath: "data.price", TsPath: "data.timestamp"}

	price, ts, err := extractPrice(spec, frame)
	if err != nil {
		t.Fatalf("extractPrice failed: %v", err)
	}
	if price != 50123.45 {
		t.Errorf("price = %v, want 50123.45", price)
	}
	if ts != 1700000000 {
		t.Errorf("ts = %v, want 1700000000 (millis converted to seconds)", ts)
	}
}

func TestExtractPriceNumericAndScaled(t *testing.T) {
	frame := []byte(`{"p":123.5}`)
	price, ts, err := extractPrice(port.ExtractSpec{PricePath: "p", Scale: 0.01}, frame)
	if err != nil {
		t.Fatalf("extractPrice failed: %v", err)
	}
	if price != 1.235 {
		t.Errorf("price = %v, want 1.235", price)
	}
	if ts != 0 {
		t.Errorf("ts = %v, want 0 when no ts_path", ts)
	}
}

func TestExtractPriceArrayIndex(t *testing.T) {
	frame := []byte(`{"ticks":[{"last":"7.5"},{"last":"8.5"}]}`)
	price, _, err := extractPrice(port.ExtractSpec{PricePath: "ticks.1.last"}, frame)
	if err != nil {
		t.Fatalf("extractPrice failed: %v", err)
	}
	if price != 8.5 {
		t.Errorf("price = %v, want 8.5", price)
	}
}

func TestExtractPriceSecondsTimestampKept(t *testing.T) {
	frame := []byte(`{"p":"1","t":1700000000}`)
	_, ts, err := extractPrice(port.ExtractSpec{PricePath: "p", TsPath: "t"}, frame)
	if err != nil {
		t.Fatalf("extractPrice failed: %v", err)
	}
	if ts != 1700000000 {
		t.Errorf("ts = %v, want 1700000000", ts)
	}
}

func TestExtractPriceErrors(t *testing.T) {
	cases := []struct {
		name  string
		spec  port.ExtractSpec
		frame string
	}{
		{"bad json", port.ExtractSpec{PricePath: "p"}, `{`},
		{"missing path", port.ExtractSpec{PricePath: "a.b"}, `{"a":{}}`},
		{"non numeric", port.ExtractSpec{PricePath: "p"}, `{"p":"n/a"}`},
		{"path through scalar", port.ExtractSpec{PricePath: "p.q"}, `{"p":1}`},
	}
	for _, c := range cases {
		if _, _, err := extractPrice(c.spec, []byte(c.frame)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

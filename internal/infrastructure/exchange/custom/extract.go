package custom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tickwatch/internal/application/port"
)

// extractPrice pulls (price, ts) out of a decoded frame. A zero ts
// means the frame carried no usable timestamp and the caller should stamp
// arrival time. Timestamps that look like milliseconds are converted to
// seconds.
func extractPrice(spec port.ExtractSpec, frame []byte) (price float64, ts int64, err error) {
	var doc any
	dec := json.NewDecoder(strings.NewReader(string(frame)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return 0, 0, fmt.Errorf("decode frame: %w", err)
	}

	raw, ok := lookupPath(doc, spec.PricePath)
	if !ok {
		return 0, 0, fmt.Errorf("price path %q not found", spec.PricePath)
	}
	price, err = toFloat(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("price path %q: %w", spec.PricePath, err)
	}
	if spec.Scale != 0 {
		price *= spec.Scale
	}

	if spec.TsPath != "" {
		if raw, ok := lookupPath(doc, spec.TsPath); ok {
			if v, err := toFloat(raw); err == nil {
				ts = int64(v)
				if ts > 1e12 { // millis
					ts /= 1000
				}
			}
		}
	}
	return price, ts, nil
}

// lookupPath walks a dot-separated path through decoded JSON. Map segments
// are object keys; numeric segments index arrays.
func lookupPath(doc any, path string) (any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", x)
		}
		return f, nil
	case float64:
		return x, nil
	}
	return 0, fmt.Errorf("not numeric: %T", v)
}

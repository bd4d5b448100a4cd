package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/domain/expr"
)

// Alert pairs a ticker with a boolean condition over its price. Identity is
// the (ticker, condition) pair. An alert referencing a removed ticker is kept
// and simply never fires.
type Alert struct {
	Ticker          string
	Condition       string
	Message         string
	MinInterval     int64 // seconds between triggers
	MaxActivations  *int  // nil = unlimited
	Enabled         bool
	ActivationCount int
	LastTriggered   int64 // unix seconds, 0 = never
}

type alertState struct {
	Alert
	cond *expr.Expr
}

// AlertPatch is a partial update applied atomically with respect to the
// evaluation pass. Nil fields are left unchanged.
type AlertPatch struct {
	Enabled        *bool
	Reset          bool // zero ActivationCount, clear LastTriggered
	MaxActivations *int
}

// AlertBook holds alert definitions and their trigger bookkeeping. The book
// mutex serializes the scheduler's evaluation pass against management
// operations, so a patch is never observed half-applied.
type AlertBook struct {
	mu    sync.Mutex
	items []*alertState
}

func NewAlertBook() *AlertBook {
	return &AlertBook{}
}

// Add registers an alert. The condition must parse and the (ticker,
// condition) pair must be unique. New alerts start enabled with a zero
// activation count.
func (b *AlertBook) Add(ticker, condition, message string, minInterval int64, maxActivations *int) error {
	key := NormalizeKey(ticker)
	cond, err := expr.Parse(condition)
	if err != nil {
		return fmt.Errorf("condition %q: %w", condition, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findLocked(key, condition) != nil {
		return fmt.Errorf("alert (%s, %s): %w", key, condition, ErrDuplicateKey)
	}
	b.items = append(b.items, &alertState{
		Alert: Alert{
			Ticker:      key,
			Condition:   condition,
			Message:     message,
			MinInterval: minInterval,
			MaxActivations: func() *int {
				if maxActivations == nil {
					return nil
				}
				v := *maxActivations
				return &v
			}(),
			Enabled: true,
		},
		cond: cond,
	})
	return nil
}

// Remove deletes an alert by identity.
func (b *AlertBook) Remove(ticker, condition string) error {
	key := NormalizeKey(ticker)

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, a := range b.items {
		if a.Ticker == key && a.Condition == condition {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("alert (%s, %s): %w", key, condition, ErrNotFound)
}

// Patch applies a partial update to an alert.
func (b *AlertBook) Patch(ticker, condition string, p AlertPatch) error {
	key := NormalizeKey(ticker)

	b.mu.Lock()
	defer b.mu.Unlock()

	a := b.findLocked(key, condition)
	if a == nil {
		return fmt.Errorf("alert (%s, %s): %w", key, condition, ErrNotFound)
	}
	if p.MaxActivations != nil {
		v := *p.MaxActivations
		a.MaxActivations = &v
	}
	if p.Reset {
		a.ActivationCount = 0
		a.LastTriggered = 0
	}
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	return nil
}

// List returns a copy of all alerts, including disabled ones.
func (b *AlertBook) List() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Alert, 0, len(b.items))
	for _, a := range b.items {
		out = append(out, a.Alert)
	}
	return out
}

// Evaluate runs one pass over every enabled alert whose ticker has a value in
// vars. For each alert whose condition holds and that is trigger-eligible, it
// renders the message, calls fire and records the trigger. A rate-limited or
// exhausted alert is suppressed with no state change. Condition evaluation
// errors are logged and skipped.
func (b *AlertBook) Evaluate(vars map[string]float64, now int64, fire func(ticker, message string, price float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, a := range b.items {
		if !a.Enabled {
			continue
		}
		price, ok := vars[a.Ticker]
		if !ok {
			continue
		}
		hit, err := a.cond.EvalBool(map[string]float64{"price": price})
		if err != nil {
			log.Debug().Str("ticker", a.Ticker).Str("condition", a.Condition).Err(err).
				Msg("alert condition evaluation failed")
			continue
		}
		if !hit {
			continue
		}
		if a.LastTriggered != 0 && now-a.LastTriggered < a.MinInterval {
			continue
		}
		if a.MaxActivations != nil && a.ActivationCount >= *a.MaxActivations {
			continue
		}

		a.LastTriggered = now
		a.ActivationCount++
		if fire != nil {
			fire(a.Ticker, RenderMessage(a.Message, a.Ticker, price), price)
		}
	}
}

func (b *AlertBook) findLocked(ticker, condition string) *alertState {
	for _, a := range b.items {
		if a.Ticker == ticker && a.Condition == condition {
			return a
		}
	}
	return nil
}

// priceDirective matches "{price}" with an optional fixed-decimals format,
// e.g. "{price:.4f}".
var priceDirective = regexp.MustCompile(`\{price(?::\.(\d+)f)?\}`)

// RenderMessage substitutes {ticker} and {price} (optionally {price:.Nf})
// into an alert message template.
func RenderMessage(template, ticker string, price float64) string {
	out := strings.ReplaceAll(template, "{ticker}", ticker)
	return priceDirective.ReplaceAllStringFunc(out, func(m string) string {
		sub := priceDirective.FindStringSubmatch(m)
		if sub[1] == "" {
			return strconv.FormatFloat(price, 'f', -1, 64)
		}
		prec, err := strconv.Atoi(sub[1])
		if err != nil {
			return strconv.FormatFloat(price, 'f', -1, 64)
		}
		return strconv.FormatFloat(price, 'f', prec, 64)
	})
}

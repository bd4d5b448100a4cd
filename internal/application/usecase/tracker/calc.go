package tracker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"tickwatch/internal/domain/expr"
)

// Calculated is a ticker derived from a formula over other tickers.
type Calculated struct {
	Name    string
	Formula string

	compiled *expr.Expr
	refs     []string

	// last successful evaluation; unchanged while evaluation fails
	// (stale-but-available).
	lastValue float64
	lastTs    int64
	hasValue  bool
}

// CalcBook holds calculated-ticker definitions and their dependency order.
type CalcBook struct {
	mu    sync.Mutex
	items map[string]*Calculated
	order []string // topological, producers first; rebuilt on Add/Remove
}

func NewCalcBook() *CalcBook {
	return &CalcBook{items: make(map[string]*Calculated)}
}

// Add registers a calculated ticker. The formula must parse, the name must be
// unique and the reference graph must stay acyclic; each violation is
// rejected here so evaluation never recurses or fails structurally.
func (b *CalcBook) Add(name, formula string) error {
	key := NormalizeKey(name)
	compiled, err := expr.Parse(formula)
	if err != nil {
		return fmt.Errorf("formula %q: %w", formula, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.items[key]; exists {
		return fmt.Errorf("calculated ticker %q: %w", key, ErrDuplicateKey)
	}

	c := &Calculated{Name: key, Formula: formula, compiled: compiled, refs: compiled.Refs()}
	b.items[key] = c
	order, err := b.sortLocked()
	if err != nil {
		delete(b.items, key)
		return fmt.Errorf("calculated ticker %q: %w", key, err)
	}
	b.order = order
	return nil
}

// Remove deletes a calculated ticker by name.
func (b *CalcBook) Remove(name string) error {
	key := NormalizeKey(name)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.items[key]; !exists {
		return fmt.Errorf("calculated ticker %q: %w", key, ErrNotFound)
	}
	delete(b.items, key)
	order, err := b.sortLocked()
	if err != nil {
		// removal cannot introduce a cycle
		order = nil
	}
	b.order = order
	return nil
}

// Has reports whether name is a registered calculated ticker.
func (b *CalcBook) Has(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.items[NormalizeKey(name)]
	return ok
}

// Formulas returns name -> formula for all registered calculated tickers.
func (b *CalcBook) Formulas() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]string, len(b.items))
	for k, c := range b.items {
		out[k] = c.Formula
	}
	return out
}

// EvalAll evaluates every calculated ticker in dependency order against vars,
// calling onValue for each success. Results are added to vars as they are
// produced, so downstream formulas in the same pass see them. A failed
// evaluation keeps the ticker's previous value and is logged, never fatal.
func (b *CalcBook) EvalAll(vars map[string]float64, now int64, onValue func(name string, value float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, name := range b.order {
		c := b.items[name]
		if c == nil {
			continue
		}
		v, err := c.compiled.Eval(vars)
		if err != nil {
			log.Debug().Str("ticker", name).Err(err).Msg("calculated ticker evaluation failed")
			// stale value stays visible to formulas and alerts downstream
			if c.hasValue {
				vars[name] = c.lastValue
			}
			continue
		}
		c.lastValue = v
		c.lastTs = now
		c.hasValue = true
		vars[name] = v
		if onValue != nil {
			onValue(name, v)
		}
	}
}

// sortLocked returns the evaluation order (Kahn's algorithm over edges
// ref -> dependent, restricted to calculated tickers) or ErrCycle.
func (b *CalcBook) sortLocked() ([]string, error) {
	indeg := make(map[string]int, len(b.items))
	dependents := make(map[string][]string, len(b.items))
	for name := range b.items {
		indeg[name] = 0
	}
	for name, c := range b.items {
		for _, ref := range c.refs {
			if _, ok := b.items[ref]; !ok {
				continue // raw ticker, always available as input
			}
			if ref == name {
				return nil, fmt.Errorf("%q references itself: %w", name, ErrCycle)
			}
			dependents[ref] = append(dependents[ref], name)
			indeg[name]++
		}
	}

	ready := make([]string, 0, len(indeg))
	for name, d := range indeg {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready) // deterministic order among independent tickers

	order := make([]string, 0, len(indeg))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dep := range dependents[name] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(indeg) {
		return nil, ErrCycle
	}
	return order, nil
}

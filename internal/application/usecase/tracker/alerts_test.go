package tracker

import (
	"errors"
	"testing"
)

func TestAlertBookAddRejectsBadCondition(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price >", "m", 0, nil); err == nil {
		t.Error("expected parse error for incomplete condition")
	}
}

func TestAlertBookAddRejectsDuplicate(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price > 1", "m", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Add("btc", "price > 1", "other", 0, nil); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	// a different condition on the same ticker is a different alert
	if err := b.Add("btc", "price > 2", "m", 0, nil); err != nil {
		t.Errorf("Add with different condition failed: %v", err)
	}
}

func TestAlertMinInterval(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price > 100", "hit", 60, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	vars := map[string]float64{"btc": 150}

	var fires []int64
	fire := func(ts int64) func(string, string, float64) {
		return func(string, string, float64) { fires = append(fires, ts) }
	}

	b.Evaluate(vars, 1000, fire(1000)) // fires
	b.Evaluate(vars, 1030, fire(1030)) // suppressed, 30s < 60s
	b.Evaluate(vars, 1059, fire(1059)) // suppressed
	b.Evaluate(vars, 1060, fire(1060)) // fires, exactly min_interval later

	if len(fires) != 2 || fires[0] != 1000 || fires[1] != 1060 {
		t.Errorf("fires = %v, want [1000 1060]", fires)
	}
}

func TestAlertMaxActivations(t *testing.T) {
	b := NewAlertBook()
	max := 2
	if err := b.Add("btc", "price > 100", "hit", 0, &max); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	vars := map[string]float64{"btc": 150}

	count := 0
	for i := int64(0); i < 5; i++ {
		b.Evaluate(vars, 1000+i, func(string, string, float64) { count++ })
	}
	if count != 2 {
		t.Errorf("fired %d times, want 2", count)
	}

	alerts := b.List()
	if len(alerts) != 1 || alerts[0].ActivationCount != 2 {
		t.Errorf("ActivationCount = %d, want 2", alerts[0].ActivationCount)
	}
}

func TestAlertSuppressionKeepsState(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price > 100", "hit", 60, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	vars := map[string]float64{"btc": 150}

	b.Evaluate(vars, 1000, nil)
	b.Evaluate(vars, 1010, nil) // suppressed

	a := b.List()[0]
	if a.ActivationCount != 1 {
		t.Errorf("ActivationCount = %d, want 1 (suppression must not count)", a.ActivationCount)
	}
	if a.LastTriggered != 1000 {
		t.Errorf("LastTriggered = %d, want 1000 (suppression must not refresh)", a.LastTriggered)
	}
}

func TestAlertDisableEnable(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price > 100", "hit", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	vars := map[string]float64{"btc": 150}

	off, on := false, true
	if err := b.Patch("btc", "price > 100", AlertPatch{Enabled: &off}); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	fired := false
	b.Evaluate(vars, 1000, func(string, string, float64) { fired = true })
	if fired {
		t.Error("disabled alert fired")
	}

	if err := b.Patch("btc", "price > 100", AlertPatch{Enabled: &on}); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	b.Evaluate(vars, 1001, func(string, string, float64) { fired = true })
	if !fired {
		t.Error("re-enabled alert did not fire")
	}
}

func TestAlertPatchReset(t *testing.T) {
	b := NewAlertBook()
	max := 1
	if err := b.Add("btc", "price > 100", "hit", 0, &max); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	vars := map[string]float64{"btc": 150}

	count := 0
	b.Evaluate(vars, 1000, func(string, string, float64) { count++ })
	b.Evaluate(vars, 1001, func(string, string, float64) { count++ })
	if count != 1 {
		t.Fatalf("fired %d times before reset, want 1", count)
	}

	if err := b.Patch("btc", "price > 100", AlertPatch{Reset: true}); err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	b.Evaluate(vars, 1002, func(string, string, float64) { count++ })
	if count != 2 {
		t.Errorf("fired %d times after reset, want 2", count)
	}
}

func TestAlertMissingTickerNeverFires(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("gone", "price > 0", "hit", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	fired := false
	b.Evaluate(map[string]float64{"btc": 1}, 1000, func(string, string, float64) { fired = true })
	if fired {
		t.Error("alert on an absent ticker fired")
	}
}

func TestAlertRemove(t *testing.T) {
	b := NewAlertBook()
	if err := b.Add("btc", "price > 1", "m", 0, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Remove("btc", "price > 1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := b.Remove("btc", "price > 1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRenderMessage(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{"{ticker} at {price:.4f}", "btc at 42001.5000"},
		{"{ticker} at {price:.1f}", "btc at 42001.5"},
		{"{ticker} at {price}", "btc at 42001.5"},
		{"no placeholders", "no placeholders"},
	}
	for _, c := range cases {
		if got := RenderMessage(c.template, "btc", 42001.5); got != c.want {
			t.Errorf("RenderMessage(%q) = %q, want %q", c.template, got, c.want)
		}
	}
}

package tracker

import "testing"

func TestStoreUpsertAndLatest(t *testing.T) {
	s := NewStore(10)

	s.Upsert(Tick{Key: "kucoin_btc_usdt", Price: 50000, Ts: 100})
	s.Upsert(Tick{Key: "kucoin_btc_usdt", Price: 50100, Ts: 101})

	got, ok := s.Latest("kucoin_btc_usdt")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if got.Price != 50100 || got.Ts != 101 {
		t.Errorf("Latest = %+v, want price 50100 ts 101", got)
	}
}

func TestStoreLastWriterWins(t *testing.T) {
	s := NewStore(10)

	// a tick with an older embedded timestamp still overwrites: arrival
	// order decides, never the exchange clock
	s.Upsert(Tick{Key: "k", Price: 1, Ts: 200})
	s.Upsert(Tick{Key: "k", Price: 2, Ts: 150})

	got, _ := s.Latest("k")
	if got.Price != 2 {
		t.Errorf("Latest price = %v, want 2", got.Price)
	}
}

func TestStoreHistoryOrder(t *testing.T) {
	s := NewStore(10)
	for i := 1; i <= 3; i++ {
		s.Upsert(Tick{Key: "k", Price: float64(i), Ts: int64(i)})
	}

	hist := s.History("k")
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	for i, h := range hist {
		if h.Price != float64(i+1) {
			t.Errorf("hist[%d].Price = %v, want %v", i, h.Price, i+1)
		}
	}
}

func TestStoreHistoryEviction(t *testing.T) {
	s := NewStore(3)
	for i := 1; i <= 5; i++ {
		s.Upsert(Tick{Key: "k", Price: float64(i), Ts: int64(i)})
	}

	hist := s.History("k")
	if len(hist) != 3 {
		t.Fatalf("history length = %d, want 3", len(hist))
	}
	if hist[0].Price != 3 || hist[2].Price != 5 {
		t.Errorf("history = %+v, want prices 3..5 oldest first", hist)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(10)
	s.Upsert(Tick{Key: "k", Price: 1, Ts: 1})
	s.Remove("k")

	if s.Has("k") {
		t.Error("expected key to be gone")
	}
	if hist := s.History("k"); hist != nil {
		t.Errorf("history after remove = %+v, want nil", hist)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(10)
	s.Upsert(Tick{Key: "k", Price: 1, Ts: 1})

	snap := s.Snapshot()
	snap["k"] = Tick{Key: "k", Price: 99, Ts: 99}

	got, _ := s.Latest("k")
	if got.Price != 1 {
		t.Errorf("store mutated through snapshot: price = %v", got.Price)
	}
}

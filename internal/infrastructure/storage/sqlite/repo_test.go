package sqlite

import (
	"context"
	"os"
	"testing"
)

func TestSQLiteRepoUpsertLatestPrice(t *testing.T) {
	dbPath := "test_latest.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.UpsertLatestPrice(ctx, "kucoin_btc_usdt", 50000.0, 1700000000); err != nil {
		t.Fatalf("UpsertLatestPrice failed: %v", err)
	}
	// second write for the same ticker must update, not error
	if err := repo.UpsertLatestPrice(ctx, "kucoin_btc_usdt", 50100.0, 1700000001); err != nil {
		t.Fatalf("UpsertLatestPrice update failed: %v", err)
	}
}

func TestSQLiteRepoPriceHistory(t *testing.T) {
	dbPath := "test_history.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	for i := int64(0); i < 5; i++ {
		if err := repo.InsertPriceTick(ctx, "kucoin_btc_usdt", 50000.0+float64(i), 1700000000+i); err != nil {
			t.Fatalf("InsertPriceTick failed: %v", err)
		}
	}
	repo.InsertPriceTick(ctx, "other", 1.0, 1700000000)

	points, err := repo.QueryPriceHistory(ctx, "kucoin_btc_usdt", 1700000001, 10)
	if err != nil {
		t.Fatalf("QueryPriceHistory failed: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}
	if points[0].Ts != 1700000001 || points[3].Ts != 1700000004 {
		t.Errorf("points not oldest-first: first ts %d, last ts %d", points[0].Ts, points[3].Ts)
	}
}

func TestSQLiteRepoPriceHistoryLimitKeepsNewest(t *testing.T) {
	dbPath := "test_limit.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	for i := int64(0); i < 10; i++ {
		repo.InsertPriceTick(ctx, "t", float64(i), 1700000000+i)
	}

	points, err := repo.QueryPriceHistory(ctx, "t", 0, 3)
	if err != nil {
		t.Fatalf("QueryPriceHistory failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Ts != 1700000007 || points[2].Ts != 1700000009 {
		t.Errorf("limit must keep the newest rows: got ts %d..%d", points[0].Ts, points[2].Ts)
	}
}

func TestSQLiteRepoInsertAlertEvent(t *testing.T) {
	dbPath := "test_alerts.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.InsertAlertEvent(ctx, 1700000000, "spread_btc", "spread_btc = 100.0000"); err != nil {
		t.Fatalf("InsertAlertEvent failed: %v", err)
	}
}

package port

import "context"

// PricePoint is one persisted price observation.
type PricePoint struct {
	Price float64
	Ts    int64 // unix seconds
}

// Repository persists price history and alert events. Implementations must be
// safe for concurrent use; write failures are logged by callers, never fatal.
type Repository interface {
	// UpsertLatestPrice overwrites the latest known price for a ticker key.
	UpsertLatestPrice(ctx context.Context, ticker string, price float64, ts int64) error

	// InsertPriceTick appends one observation to the ticker's history.
	InsertPriceTick(ctx context.Context, ticker string, price float64, ts int64) error

	// QueryPriceHistory returns up to limit observations for ticker with
	// Ts >= fromTs, oldest first.
	QueryPriceHistory(ctx context.Context, ticker string, fromTs int64, limit int) ([]PricePoint, error)

	// InsertAlertEvent records one dispatched alert notification.
	InsertAlertEvent(ctx context.Context, ts int64, ticker, message string) error

	Close() error
}

package composite

import (
	"context"

	"tickwatch/internal/application/port"
)

// Repo fans writes out to every backing repository. Reads return the first
// backend's non-empty answer. The first write error wins, but all backends
// are still attempted.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, ticker string, price float64, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestPrice(ctx, ticker, price, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertPriceTick(ctx context.Context, ticker string, price float64, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertPriceTick(ctx, ticker, price, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) QueryPriceHistory(ctx context.Context, ticker string, fromTs int64, limit int) ([]port.PricePoint, error) {
	var firstErr error
	for _, repo := range r.repos {
		points, err := repo.QueryPriceHistory(ctx, ticker, fromTs, limit)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(points) > 0 {
			return points, nil
		}
	}
	return nil, firstErr
}

func (r *Repo) InsertAlertEvent(ctx context.Context, ts int64, ticker, message string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertAlertEvent(ctx, ts, ticker, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)

// Package noop is the repository used when storage is disabled.
package noop

import (
	"context"

	"tickwatch/internal/application/port"
)

type Repo struct{}

func New() *Repo { return &Repo{} }

func (Repo) UpsertLatestPrice(context.Context, string, float64, int64) error { return nil }
func (Repo) InsertPriceTick(context.Context, string, float64, int64) error   { return nil }
func (Repo) QueryPriceHistory(context.Context, string, int64, int) ([]port.PricePoint, error) {
	return nil, nil
}
func (Repo) InsertAlertEvent(context.Context, int64, string, string) error { return nil }
func (Repo) Close() error                                                  { return nil }

var _ port.Repository = (*Repo)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"tickwatch/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ticker TEXT NOT NULL,
  price REAL NOT NULL,
  ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prices_ticker_ts ON prices(ticker, ts);

CREATE TABLE IF NOT EXISTS latest_prices (
  ticker TEXT PRIMARY KEY,
  price REAL NOT NULL,
  ts INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts INTEGER NOT NULL,
  ticker TEXT NOT NULL,
  message TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_events_ts ON alert_events(ts);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, ticker string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_prices(ticker, price, ts)
		VALUES(?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
		price=excluded.price, ts=excluded.ts
	`, ticker, price, ts)
	return err
}

func (r *Repo) InsertPriceTick(ctx context.Context, ticker string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO prices(ticker, price, ts) VALUES(?, ?, ?)`,
		ticker, price, ts)
	return err
}

func (r *Repo) QueryPriceHistory(ctx context.Context, ticker string, fromTs int64, limit int) ([]port.PricePoint, error) {
	if limit <= 0 {
		limit = 120
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT price, ts FROM prices
		WHERE ticker = ? AND ts >= ?
		ORDER BY ts DESC LIMIT ?
	`, ticker, fromTs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []port.PricePoint
	for rows.Next() {
		var p port.PricePoint
		if err := rows.Scan(&p.Price, &p.Ts); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// query is newest-first for the LIMIT; callers get oldest-first
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (r *Repo) InsertAlertEvent(ctx context.Context, ts int64, ticker, message string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alert_events(ts, ticker, message) VALUES(?, ?, ?)`,
		ts, ticker, message)
	return err
}

var _ port.Repository = (*Repo)(nil)

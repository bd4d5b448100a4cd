// Package container owns the process's storage resources: it initializes the
// enabled backends, exposes them as one composite repository and closes them
// in reverse order on shutdown.
package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickwatch/internal/application/port"
	"tickwatch/internal/infrastructure/config"
	"tickwatch/internal/infrastructure/storage/composite"
	"tickwatch/internal/infrastructure/storage/noop"
	postgresrepo "tickwatch/internal/infrastructure/storage/postgres"
	redisrepo "tickwatch/internal/infrastructure/storage/redis"
	sqliterepo "tickwatch/internal/infrastructure/storage/sqlite"
)

type Container struct {
	cfg         *config.Config
	repos       []port.Repository
	closeOnce   sync.Once
	closerChain []func() error
}

func New(cfg *config.Config) (*Container, error) {
	c := &Container{cfg: cfg}

	if cfg.Storage.Enabled {
		if err := c.initStorage(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) initStorage() error {
	if c.cfg.Storage.SQLite.Enabled {
		if err := c.initSQLite(); err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
	}
	if c.cfg.Storage.Postgres.Enabled {
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
	}
	if c.cfg.Storage.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
	}
	return nil
}

func (c *Container) initSQLite() error {
	repo, err := sqliterepo.New(c.cfg.Storage.SQLite.Path)
	if err != nil {
		return err
	}
	c.repos = append(c.repos, repo)
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})
	log.Info().Str("path", c.cfg.Storage.SQLite.Path).Msg("sqlite initialized")
	return nil
}

func (c *Container) initPostgres() error {
	repo, err := postgresrepo.New(c.cfg.Storage.Postgres.DSN)
	if err != nil {
		return err
	}
	c.repos = append(c.repos, repo)
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})
	log.Info().Msg("postgres initialized")
	return nil
}

func (c *Container) initRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Storage.Redis.Addr,
		Password: c.cfg.Storage.Redis.Password,
		DB:       c.cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(c.cfg.Storage.Redis.TTLSeconds) * time.Second
	repo := redisrepo.New(rdb, c.cfg.Storage.Redis.Prefix, ttl)
	c.repos = append(c.repos, repo)
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", c.cfg.Storage.Redis.Addr).
		Int("db", c.cfg.Storage.Redis.DB).
		Msg("redis initialized")
	return nil
}

// Repo returns the repository the engine writes through: all enabled backends
// behind the composite fan-out, or a no-op when storage is disabled.
func (c *Container) Repo() port.Repository {
	if len(c.repos) == 0 {
		return noop.New()
	}
	if len(c.repos) == 1 {
		return c.repos[0]
	}
	return composite.New(c.repos...)
}

// Close closes all resources, last-opened first.
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}

// Package database owns the PostgreSQL connection pool.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"seatime-backend/internal/config"
)

// Service is the database dependency handed to handlers and cron jobs.
type Service interface {
	// Health returns a status map suitable for the /api/health endpoint.
	Health() map[string]string

	// Close releases every pooled connection.
	Close()

	// GetPool exposes the underlying pool for queries.
	GetPool() *pgxpool.Pool
}

type service struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and applies the schema. It exits the process on
// failure, matching how the server treats an unusable database at boot.
func New(cfg *config.DBConfig) Service {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("[db] %v", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("[db] %v", err)
	}

	log.Printf("[db] connected to %s", cfg.Host)
	return &service{pool: pool}
}

// Connect builds a pool from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats := map[string]string{}
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["message"] = "It's healthy"
	stats["total_connections"] = fmt.Sprintf("%d", st.TotalConns())
	stats["idle_connections"] = fmt.Sprintf("%d", st.IdleConns())
	stats["acquired_connections"] = fmt.Sprintf("%d", st.AcquiredConns())
	return stats
}

func (s *service) Close() {
	log.Println("[db] closing connection pool")
	s.pool.Close()
}

func (s *service) GetPool() *pgxpool.Pool {
	return s.pool
}

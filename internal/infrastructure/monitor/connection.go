package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errNotConfigured = errors.New("dependency not configured")

// Monitor probes the backing services on an interval and keeps the last
// observed status for the health endpoint.
type Monitor struct {
	pg    *pgxpool.Pool
	redis *redislib.Client

	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status

	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(pg *pgxpool.Pool, redis *redislib.Client, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the probe loop. The first probe runs immediately so the
// health endpoint never reports a zero Status after boot.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop halts the probe loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Snapshot returns the most recent probe result.
func (m *Monitor) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe()
	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) probe() {
	pgErr := m.pingPostgres()
	redisErr := m.pingRedis()

	next := Status{
		Postgres:  pgErr == nil,
		Redis:     redisErr == nil,
		CheckedAt: time.Now(),
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if prev.Postgres == next.Postgres && prev.Redis == next.Redis {
		return
	}
	if next.Healthy() {
		m.logger.Info("dependencies reachable")
		return
	}
	m.logger.Warn("dependency probe failed",
		zap.Bool("postgres", next.Postgres),
		zap.Bool("redis", next.Redis),
		zap.NamedError("postgres_err", pgErr),
		zap.NamedError("redis_err", redisErr),
	)
}

func (m *Monitor) pingPostgres() error {
	if m.pg == nil {
		return errNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.pg.Ping(ctx)
}

func (m *Monitor) pingRedis() error {
	if m.redis == nil {
		return errNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err()
}

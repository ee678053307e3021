package client

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher re-reads the board on a fixed schedule. Each tick is one plain
// Refresh: a failed tick logs and waits for the next one, no retry storms.
type Refresher struct {
	client   *Client
	cron     *cron.Cron
	interval time.Duration
	timeout  time.Duration
	onUpdate func()
	logger   *zap.Logger
}

// NewRefresher schedules Refresh every interval. onUpdate fires after each
// successful re-read, so a renderer can repaint; it may be nil.
func NewRefresher(client *Client, interval time.Duration, onUpdate func(), logger *zap.Logger) *Refresher {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		client:   client,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		timeout:  interval,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Start begins the schedule. The first refresh happens after one interval;
// callers wanting an immediate read call Refresh themselves first.
func (r *Refresher) Start() error {
	spec := fmt.Sprintf("@every %ds", int(r.interval.Seconds()))
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("refresher started", zap.Duration("interval", r.interval))
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("refresher stopped")
	return nil
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Refresh(ctx); err != nil {
		r.logger.Warn("scheduled refresh failed", zap.Error(err))
		return
	}
	if r.onUpdate != nil {
		r.onUpdate()
	}
}

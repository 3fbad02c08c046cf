package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/config"
)

// Sender delivers one notification. Implemented by the notify actor
// dispatcher.
type Sender interface {
	Deliver(ctx context.Context, channel, recipient, subject, body string) error
}

// Dispatcher drains the outbox on an interval. It is the only consumer of
// the queue, so rows are not claimed with a lock.
type Dispatcher struct {
	queue  *Queue
	sender Sender
	cfg    config.OutboxConfig
	logger *zap.Logger
}

func NewDispatcher(queue *Queue, sender Sender, cfg config.OutboxConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  queue,
		sender: sender,
		cfg:    cfg,
		logger: logger.Named("outbox"),
	}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.logger.Info("outbox dispatcher started",
		zap.Duration("poll_interval", d.cfg.PollInterval),
		zap.Int("batch_size", d.cfg.BatchSize))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	rows, err := d.queue.Due(ctx, time.Now(), d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("failed to load due notifications", zap.Error(err))
		return
	}

	for i := range rows {
		row := &rows[i]
		sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		err := d.sender.Deliver(sendCtx, row.Channel, row.Recipient, row.Subject, row.Body)
		cancel()

		if err != nil {
			if markErr := d.queue.MarkFailed(ctx, row, err, d.cfg.MaxAttempts, d.cfg.PollInterval); markErr != nil {
				d.logger.Error("failed to record delivery failure",
					zap.String("id", row.ID), zap.Error(markErr))
			}
			d.logger.Warn("notification delivery failed",
				zap.String("id", row.ID),
				zap.String("channel", row.Channel),
				zap.Int("attempts", row.Attempts),
				zap.Error(err))
			continue
		}

		if err := d.queue.MarkSent(ctx, row.ID); err != nil {
			d.logger.Error("failed to mark notification sent",
				zap.String("id", row.ID), zap.Error(err))
		}
	}
}

package notification

import (
	"context"
	"time"

	obsmetrics "github.com/kudamusaisiwa/royalprecast/internal/observability/metrics"
	"go.uber.org/zap"
)

const dispatchTimeout = 5 * time.Second

// Dispatcher fans events out to the configured sink after the owning
// transaction has committed. Errors never propagate to the caller.
type Dispatcher struct {
	log      *zap.Logger
	notifier Notifier
	metrics  *obsmetrics.Metrics
}

func NewDispatcher(log *zap.Logger, notifier Notifier, metrics *obsmetrics.Metrics) *Dispatcher {
	return &Dispatcher{
		log:      log.Named("notification.dispatcher"),
		notifier: notifier,
		metrics:  metrics,
	}
}

// Dispatch delivers the event if its type is notifiable. Failures are
// logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if d == nil || d.notifier == nil {
		return
	}
	if !Wants(event.Type) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, event); err != nil {
		if d.metrics != nil {
			d.metrics.NotificationFailures.Inc()
		}
		d.log.Warn("notification dispatch failed",
			zap.String("type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err),
		)
	}
}

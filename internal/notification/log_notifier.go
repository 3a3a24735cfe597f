package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes alerts to the structured log. It stands in for the
// out-of-scope toast/push presentation layer in self-hosted deployments.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notification.sink")}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	_ = ctx
	n.log.Info("notification",
		zap.String("type", string(event.Type)),
		zap.String("message", event.Message),
		zap.String("entity_type", event.EntityType),
		zap.String("entity_id", event.EntityID),
		zap.String("actor", event.ActorName),
	)
	return nil
}

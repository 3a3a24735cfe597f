package notification

import (
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(provideNotifier),
	fx.Provide(NewDispatcher),
)

func provideNotifier(cfg config.Config, log *zap.Logger) Notifier {
	if !cfg.NotificationsEnabled {
		return NoOpNotifier{}
	}
	return NewLogNotifier(log)
}

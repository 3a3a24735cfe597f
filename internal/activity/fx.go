package activity

import (
	"github.com/kudamusaisiwa/royalprecast/internal/activity/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/activity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("activity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

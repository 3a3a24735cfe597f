package task

import (
	"github.com/kudamusaisiwa/royalprecast/internal/task/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/task/service"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

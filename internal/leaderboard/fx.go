package leaderboard

import (
	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("leaderboard.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

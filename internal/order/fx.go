package order

import (
	"github.com/kudamusaisiwa/royalprecast/internal/order/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package customer

import (
	"github.com/kudamusaisiwa/royalprecast/internal/customer/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

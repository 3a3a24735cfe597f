package payment

import (
	"github.com/kudamusaisiwa/royalprecast/internal/payment/repository"
	"github.com/kudamusaisiwa/royalprecast/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package migration

import (
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	customerdomain "github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/seed"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql deployments are dev/self-hosted; the
			// model definitions carry everything the schema needs.
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&orderdomain.Order{},
				&orderdomain.OrderItem{},
				&orderdomain.OrderNote{},
				&paymentdomain.Payment{},
				&taskdomain.Task{},
				&activitydomain.Activity{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)

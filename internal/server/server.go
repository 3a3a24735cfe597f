package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kudamusaisiwa/royalprecast/internal/activity"
	activitydomain "github.com/kudamusaisiwa/royalprecast/internal/activity/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/authorization"
	"github.com/kudamusaisiwa/royalprecast/internal/cache"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	"github.com/kudamusaisiwa/royalprecast/internal/config"
	"github.com/kudamusaisiwa/royalprecast/internal/customer"
	customerdomain "github.com/kudamusaisiwa/royalprecast/internal/customer/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/leaderboard"
	leaderboarddomain "github.com/kudamusaisiwa/royalprecast/internal/leaderboard/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/migration"
	"github.com/kudamusaisiwa/royalprecast/internal/notification"
	"github.com/kudamusaisiwa/royalprecast/internal/observability"
	obslogger "github.com/kudamusaisiwa/royalprecast/internal/observability/logger"
	"github.com/kudamusaisiwa/royalprecast/internal/order"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/payment"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/kudamusaisiwa/royalprecast/internal/scheduler"
	"github.com/kudamusaisiwa/royalprecast/internal/task"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	clock.Module,
	db.Module,
	cache.Module,
	migration.Module,
	authorization.Module,
	notification.Module,
	activity.Module,
	customer.Module,
	task.Module,
	payment.Module,
	order.Module,
	leaderboard.Module,
	scheduler.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, registry *prometheus.Registry) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(cfg config.Config, registry *prometheus.Registry) *gin.Engine {
	return NewEngine(cfg, registry)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	AuthzSvc       authorization.Service
	OrderSvc       orderdomain.Service
	PaymentSvc     paymentdomain.Service
	CustomerSvc    customerdomain.Service
	TaskSvc        taskdomain.Service
	ActivitySvc    activitydomain.Service
	LeaderboardSvc leaderboarddomain.Service
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	authzSvc       authorization.Service
	orderSvc       orderdomain.Service
	paymentSvc     paymentdomain.Service
	customerSvc    customerdomain.Service
	taskSvc        taskdomain.Service
	activitySvc    activitydomain.Service
	leaderboardSvc leaderboarddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		authzSvc:       p.AuthzSvc,
		orderSvc:       p.OrderSvc,
		paymentSvc:     p.PaymentSvc,
		customerSvc:    p.CustomerSvc,
		taskSvc:        p.TaskSvc,
		activitySvc:    p.ActivitySvc,
		leaderboardSvc: p.LeaderboardSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", IdentityRequired())

	// -------- Customers --------
	api.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
	api.POST("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerByID)
	api.PATCH("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.UpdateCustomer)

	// -------- Orders --------
	api.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.ListOrders)
	api.POST("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionCreate), s.CreateOrder)
	api.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionView), s.GetOrderByID)
	api.PATCH("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionUpdate), s.UpdateOrder)
	api.DELETE("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionDelete), s.DeleteOrder)
	api.POST("/orders/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionOrderChangeStatus), s.ChangeOrderStatus)
	api.GET("/orders/:id/payment_status", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetOrderPaymentStatus)

	// -------- Payments --------
	api.GET("/orders/:id/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListOrderPayments)
	api.POST("/orders/:id/payments", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentRecord), s.RecordPayment)
	api.GET("/orders/:id/total_paid", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetOrderTotalPaid)

	// -------- Tasks --------
	api.GET("/tasks", s.authorize(authorization.ObjectTask, authorization.ActionView), s.ListTasks)
	api.GET("/tasks/:id", s.authorize(authorization.ObjectTask, authorization.ActionView), s.GetTaskByID)

	// -------- Activities --------
	api.GET("/activities", s.authorize(authorization.ObjectActivity, authorization.ActionView), s.ListActivities)

	// -------- Leaderboard --------
	api.GET("/leaderboard", s.authorize(authorization.ObjectLeaderboard, authorization.ActionView), s.ComputeLeaderboard)
}

package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/kudamusaisiwa/royalprecast/internal/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrder       = "order"
	ObjectPayment     = "payment"
	ObjectCustomer    = "customer"
	ObjectTask        = "task"
	ObjectActivity    = "activity"
	ObjectLeaderboard = "leaderboard"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionOrderChangeStatus = "change_status"
	ActionPaymentRecord     = "record"
	ActionTaskComplete      = "complete"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrForbidden    = errors.New("forbidden")
)

type Service interface {
	// Authorize checks whether the acting user's role may perform the
	// action on the object. Fine-grained rules, like who may cross the
	// paid checkpoint, stay in the owning service; this layer gates the
	// route surface.
	Authorize(ctx context.Context, user identity.User, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, user identity.User, object, action string) error {
	if !user.Role.Valid() {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	action = strings.TrimSpace(action)
	if object == "" || action == "" {
		return ErrInvalidActor
	}

	allowed, err := s.enforcer.Enforce(roleSubject(user.Role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("user_id", user.ID),
			zap.String("role", string(user.Role)),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func roleSubject(role identity.Role) string {
	return "role:" + string(role)
}

// seedPolicies installs the default role grants. Roles inherit downward
// through grouping rules: admin > manager > finance > staff > viewer.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Viewers read everything.
		{"role:viewer", ObjectOrder, ActionView},
		{"role:viewer", ObjectPayment, ActionView},
		{"role:viewer", ObjectCustomer, ActionView},
		{"role:viewer", ObjectTask, ActionView},
		{"role:viewer", ObjectActivity, ActionView},
		{"role:viewer", ObjectLeaderboard, ActionView},

		// Staff run the day-to-day pipeline.
		{"role:staff", ObjectOrder, ActionCreate},
		{"role:staff", ObjectOrder, ActionUpdate},
		{"role:staff", ObjectOrder, ActionOrderChangeStatus},
		{"role:staff", ObjectCustomer, ActionCreate},
		{"role:staff", ObjectCustomer, ActionUpdate},
		{"role:staff", ObjectPayment, ActionPaymentRecord},
		{"role:staff", ObjectTask, ActionTaskComplete},

		// Order deletion is a management operation.
		{"role:manager", ObjectOrder, ActionDelete},
	}
	for _, p := range policies {
		has, err := enforcer.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{"role:staff", "role:viewer"},
		{"role:finance", "role:staff"},
		{"role:manager", "role:finance"},
		{"role:admin", "role:manager"},
	}
	for _, g := range groupings {
		has, err := enforcer.HasGroupingPolicy(g[0], g[1])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}

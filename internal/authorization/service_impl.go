package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectDealer   = "dealer"
	ObjectEmployee = "employee"
	ObjectClient   = "client"
	ObjectTransfer = "transfer"
)

const (
	ActionDealerCreate = "dealer.create"
	ActionDealerUpdate = "dealer.update"

	ActionEmployeeCreate = "employee.create"
	ActionEmployeeEnd    = "employee.end"

	ActionClientCreate     = "client.create"
	ActionClientAddVehicle = "client.add_vehicle"

	ActionTransferCreate  = "transfer.create"
	ActionTransferApprove = "transfer.approve"
	ActionTransferReject  = "transfer.reject"
	ActionTransferCancel  = "transfer.cancel"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer persists policies through the gorm adapter. A nil db keeps
// them in memory.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if db != nil {
		adapter, err := gormadapter.NewAdapterByDB(db)
		if err != nil {
			return nil, err
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
		if err != nil {
			return nil, err
		}
		enforcer.EnableAutoSave(true)
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err != nil {
			return nil, err
		}
	}
	enforcer.EnableAutoBuildRoleLinks(true)

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

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	if actor.Role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(actor.subject(), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("actor", actor.Raw),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Dealer permissions
		{"role:dealer", ObjectEmployee, ActionEmployeeCreate},
		{"role:dealer", ObjectEmployee, ActionEmployeeEnd},
		{"role:dealer", ObjectClient, ActionClientCreate},
		{"role:dealer", ObjectClient, ActionClientAddVehicle},
		{"role:dealer", ObjectTransfer, ActionTransferCreate},

		// Admin-only permissions
		{"role:admin", ObjectDealer, ActionDealerCreate},
		{"role:admin", ObjectDealer, ActionDealerUpdate},
		{"role:admin", ObjectTransfer, ActionTransferApprove},
		{"role:admin", ObjectTransfer, ActionTransferReject},
		{"role:admin", ObjectTransfer, ActionTransferCancel},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Admins can do everything a dealer can.
	_, err := enforcer.AddGroupingPolicy("role:admin", "role:dealer")
	return err
}

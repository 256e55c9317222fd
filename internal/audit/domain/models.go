package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionCreate        Action = "CREATE"
	ActionUpdate        Action = "UPDATE"
	ActionEndEmployment Action = "END_EMPLOYMENT"
	ActionAddVehicle    Action = "ADD_VEHICLE"
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionCancel        Action = "CANCEL"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionEndEmployment, ActionAddVehicle,
		ActionApprove, ActionReject, ActionCancel:
		return true
	}
	return false
}

type Entity string

const (
	EntityDealer     Entity = "DEALER"
	EntityEmployment Entity = "EMPLOYMENT"
	EntityClient     Entity = "CLIENT"
	EntityTransfer   Entity = "TRANSFER"
)

func (e Entity) Valid() bool {
	switch e {
	case EntityDealer, EntityEmployment, EntityClient, EntityTransfer:
		return true
	}
	return false
}

// AuditLog is append-only. Actor is stored exactly as the caller sent it.
type AuditLog struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	Actor     string            `json:"actor"`
	Action    Action            `json:"action"`
	Entity    Entity            `json:"entity"`
	EntityID  string            `json:"entityId"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

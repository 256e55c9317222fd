package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

// transitions is the complete state machine. APPROVED, REJECTED and CANCELED
// have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected, StatusCanceled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCanceled:
		return true
	default:
		return false
	}
}

type TransferRequest struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID     snowflake.ID `gorm:"not null" json:"clientId"`
	FromDealerID snowflake.ID `gorm:"not null" json:"fromDealerId"`
	ToDealerID   snowflake.ID `gorm:"not null" json:"toDealerId"`
	Status       Status       `gorm:"not null" json:"status"`
	Reason       *string      `json:"reason,omitempty"`
	RequestedBy  string       `gorm:"not null" json:"requestedBy"`
	DecidedBy    *string      `json:"decidedBy,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"createdAt"`
	DecidedAt    *time.Time   `json:"decidedAt,omitempty"`
}

func (TransferRequest) TableName() string { return "transfer_requests" }

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

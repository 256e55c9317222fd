package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// statusTransitions lists the allowed moves for employments and client links.
// INACTIVE is terminal for a row; re-affiliation creates a new row.
var statusTransitions = map[Status][]Status{
	StatusActive: {StatusInactive},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type SeparationType string

const (
	SeparationResigned    SeparationType = "RESIGNED"
	SeparationPerformance SeparationType = "PERFORMANCE"
	SeparationConduct     SeparationType = "CONDUCT"
	SeparationRedundancy  SeparationType = "REDUNDANCY"
	SeparationOther       SeparationType = "OTHER"
)

func (t SeparationType) Valid() bool {
	switch t {
	case SeparationResigned, SeparationPerformance, SeparationConduct, SeparationRedundancy, SeparationOther:
		return true
	default:
		return false
	}
}

// OffboardingReasonTransfer marks a link closed by an approved transfer.
const OffboardingReasonTransfer = "TRANSFER"

type Employment struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	PersonID          snowflake.ID `gorm:"not null" json:"personId"`
	DealerID          snowflake.ID `gorm:"not null" json:"dealerId"`
	DateOfJoining     time.Time    `gorm:"not null" json:"dateOfJoining"`
	DateOfResignation *time.Time   `json:"dateOfResignation,omitempty"`
	Status            Status       `gorm:"not null" json:"status"`
	CreatedAt         time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Employment) TableName() string { return "employments" }

type SeparationEvent struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	EmploymentID   snowflake.ID   `gorm:"not null" json:"employmentId"`
	SeparationDate time.Time      `gorm:"not null" json:"separationDate"`
	SeparationType SeparationType `gorm:"not null" json:"separationType"`
	Remarks        string         `gorm:"not null" json:"remarks"`
	RecordedBy     string         `gorm:"not null" json:"recordedBy"`
	CreatedAt      time.Time      `gorm:"not null" json:"createdAt"`
}

func (SeparationEvent) TableName() string { return "separation_events" }

type ClientLink struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID          snowflake.ID `gorm:"not null" json:"clientId"`
	DealerID          snowflake.ID `gorm:"not null" json:"dealerId"`
	Status            Status       `gorm:"not null" json:"status"`
	DateOfOnboarding  time.Time    `gorm:"not null" json:"dateOfOnboarding"`
	DateOfOffboarding *time.Time   `json:"dateOfOffboarding,omitempty"`
	OffboardingReason *string      `json:"offboardingReason,omitempty"`
	CreatedAt         time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time    `gorm:"not null" json:"updatedAt"`
}

func (ClientLink) TableName() string { return "client_dealer_links" }

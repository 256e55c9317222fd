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

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Dealer is a petrol outlet registered with the association.
type Dealer struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Code       string       `gorm:"not null;uniqueIndex" json:"code"`
	LegalName  string       `gorm:"not null" json:"legalName"`
	OutletName string       `gorm:"not null" json:"outletName"`
	Location   string       `gorm:"not null" json:"location"`
	Status     Status       `gorm:"not null" json:"status"`
	CreatedAt  time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Dealer) TableName() string { return "dealers" }

// DisplayName is the name shown to other dealers in conflict responses.
func (d Dealer) DisplayName() string {
	if d.OutletName != "" {
		return d.OutletName
	}
	return d.LegalName
}

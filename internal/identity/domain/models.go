package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ClientType string

const (
	ClientTypePrivate    ClientType = "PRIVATE"
	ClientTypeGovernment ClientType = "GOVERNMENT"
)

// Person is an employee identity, keyed by national id.
type Person struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	NationalID  string       `gorm:"not null;uniqueIndex" json:"nationalId"`
	Name        string       `gorm:"not null" json:"name"`
	Mobile      *string      `json:"mobile,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Address     *string      `json:"address,omitempty"`
	DateOfBirth *time.Time   `json:"dateOfBirth,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Person) TableName() string { return "persons" }

// Client is an organization identity. PRIVATE clients are keyed by tax id and
// GOVERNMENT clients by a derived org id.
type Client struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientType    ClientType   `gorm:"column:client_type;not null" json:"clientType"`
	TaxID         *string      `json:"taxId,omitempty"`
	OrgID         *string      `json:"orgId,omitempty"`
	Name          string       `gorm:"not null" json:"name"`
	ContactPerson *string      `json:"contactPerson,omitempty"`
	Mobile        *string      `json:"mobile,omitempty"`
	Email         *string      `json:"email,omitempty"`
	Address       *string      `json:"address,omitempty"`
	GSTNumber     *string      `gorm:"column:gst_number" json:"gstNumber,omitempty"`
	CreatedAt     time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updatedAt"`
}

func (Client) TableName() string { return "clients" }

type Vehicle struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID           snowflake.ID `gorm:"not null;index" json:"clientId"`
	RegistrationNumber string       `gorm:"not null;uniqueIndex" json:"registrationNumber"`
	FuelType           *string      `json:"fuelType,omitempty"`
	CreatedAt          time.Time    `gorm:"not null" json:"createdAt"`
}

func (Vehicle) TableName() string { return "vehicles" }

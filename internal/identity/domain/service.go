package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type PersonInput struct {
	NationalID  string     `json:"nationalId" validate:"required,numeric"`
	Name        string     `json:"name" validate:"required,max=200"`
	Mobile      string     `json:"mobile,omitempty" validate:"omitempty,numeric,min=10,max=15"`
	Email       string     `json:"email,omitempty" validate:"omitempty,email"`
	Address     string     `json:"address,omitempty" validate:"max=500"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// ClientInput carries the type-specific identity fields of a client. TaxID is
// used for PRIVATE clients; OrgName, OfficeCode and OfficialReference for
// GOVERNMENT clients.
type ClientInput struct {
	ClientType        ClientType `json:"clientType"`
	TaxID             string     `json:"taxId,omitempty"`
	OrgName           string     `json:"orgName,omitempty"`
	OfficeCode        string     `json:"officeCode,omitempty"`
	OfficialReference string     `json:"officialReference,omitempty"`
	Name              string     `json:"name" validate:"required,max=200"`
	ContactPerson     string     `json:"contactPerson,omitempty" validate:"max=200"`
	Mobile            string     `json:"mobile,omitempty" validate:"omitempty,numeric,min=10,max=15"`
	Email             string     `json:"email,omitempty" validate:"omitempty,email"`
	Address           string     `json:"address,omitempty" validate:"max=500"`
	GSTNumber         string     `json:"gstNumber,omitempty" validate:"max=15"`
}

type VehicleInput struct {
	RegistrationNumber string `json:"registrationNumber"`
	FuelType           string `json:"fuelType,omitempty"`
}

type PersonSearch struct {
	NationalID string
	Name       string
	Mobile     string
}

func (s PersonSearch) Empty() bool {
	return s.NationalID == "" && s.Name == "" && s.Mobile == ""
}

type ClientSearch struct {
	TaxID               string
	OrgID               string
	Name                string
	VehicleRegistration string
}

func (s ClientSearch) Empty() bool {
	return s.TaxID == "" && s.OrgID == "" && s.Name == "" && s.VehicleRegistration == ""
}

type Service interface {
	// NewPerson validates input and returns an unsaved person with a fresh id.
	NewPerson(PersonInput) (Person, error)
	CreatePerson(context.Context, PersonInput) (Person, error)
	FindPersonByNationalID(context.Context, string) (*Person, error)
	GetPerson(context.Context, snowflake.ID) (Person, error)
	LookupPersons(context.Context, []snowflake.ID) (map[snowflake.ID]Person, error)
	SearchPersons(context.Context, PersonSearch) ([]Person, error)

	// NewClient validates input and returns an unsaved client with its identity key set.
	NewClient(ClientInput) (Client, error)
	CreateClient(context.Context, ClientInput) (Client, error)
	FindClientByTaxID(context.Context, string) (*Client, error)
	FindClientByOrgID(context.Context, string) (*Client, error)
	// FindClientByIdentity looks up a client by the key NewClient assigned.
	FindClientByIdentity(context.Context, Client) (*Client, error)
	GetClient(context.Context, snowflake.ID) (Client, error)
	LookupClients(context.Context, []snowflake.ID) (map[snowflake.ID]Client, error)
	SearchClients(context.Context, ClientSearch) ([]Client, error)

	NewVehicle(clientID snowflake.ID, input VehicleInput) (Vehicle, error)
	AddVehicle(context.Context, snowflake.ID, VehicleInput) (Vehicle, error)
	ListVehicles(context.Context, []snowflake.ID) (map[snowflake.ID][]Vehicle, error)
}

var (
	ErrInvalidID                 = errors.New("invalid_id")
	ErrInvalidNationalID         = errors.New("invalid_national_id")
	ErrInvalidName               = errors.New("invalid_name")
	ErrInvalidMobile             = errors.New("invalid_mobile")
	ErrInvalidEmail              = errors.New("invalid_email")
	ErrInvalidAddress            = errors.New("invalid_address")
	ErrInvalidClientType         = errors.New("invalid_client_type")
	ErrInvalidTaxID              = errors.New("invalid_tax_id")
	ErrInvalidOrgName            = errors.New("invalid_org_name")
	ErrInvalidOfficeCode         = errors.New("invalid_office_code")
	ErrInvalidOfficialReference  = errors.New("invalid_official_reference")
	ErrInvalidContactPerson      = errors.New("invalid_contact_person")
	ErrInvalidGSTNumber          = errors.New("invalid_gst_number")
	ErrInvalidRegistrationNumber = errors.New("invalid_registration_number")
	ErrInvalidSearch             = errors.New("invalid_search")
	ErrVehicleExists             = errors.New("vehicle_exists")
	ErrPersonExists              = errors.New("person_exists")
	ErrClientExists              = errors.New("client_exists")
	ErrPersonNotFound            = errors.New("person_not_found")
	ErrClientNotFound            = errors.New("client_not_found")
)

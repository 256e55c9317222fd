package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	affiliationdomain "github.com/smallbiznis/dealerhub/internal/affiliation/domain"
	identitydomain "github.com/smallbiznis/dealerhub/internal/identity/domain"
)

type RegisterEmployeeRequest struct {
	identitydomain.PersonInput
	DealerID      snowflake.ID
	DateOfJoining time.Time
}

type EmployeeRegistration struct {
	Person        identitydomain.Person        `json:"person"`
	Employment    affiliationdomain.Employment `json:"employment"`
	PersonCreated bool                         `json:"personCreated"`
	// Reused is set when the person was already active at the same dealer.
	Reused bool `json:"reused"`
}

type RegisterClientRequest struct {
	identitydomain.ClientInput
	Vehicles         []identitydomain.VehicleInput
	DealerID         snowflake.ID
	DateOfOnboarding time.Time
}

type ClientRegistration struct {
	Client        identitydomain.Client        `json:"client"`
	Link          affiliationdomain.ClientLink `json:"link"`
	Vehicles      []identitydomain.Vehicle     `json:"vehicles"`
	ClientCreated bool                         `json:"clientCreated"`
	Reused        bool                         `json:"reused"`
}

// Service resolves an identity, checks for a conflicting affiliation and
// writes the identity and its new affiliation together.
type Service interface {
	RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (EmployeeRegistration, error)
	RegisterClient(ctx context.Context, req RegisterClientRequest) (ClientRegistration, error)
}

var (
	ErrInvalidDealer    = errors.New("invalid_dealer_id")
	ErrVehiclesRequired = errors.New("invalid_vehicles")
)

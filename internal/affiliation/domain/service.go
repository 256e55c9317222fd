package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type EndEmploymentRequest struct {
	SeparationDate time.Time
	SeparationType SeparationType
	Remarks        string
	Actor          string
}

type Service interface {
	GetActiveEmployment(ctx context.Context, personID snowflake.ID) (*Employment, error)
	GetEmployment(ctx context.Context, id snowflake.ID) (Employment, error)
	// CreateEmployment must only be called once the conflict check passed;
	// the active-employment index rejects a second ACTIVE row regardless.
	CreateEmployment(ctx context.Context, personID, dealerID snowflake.ID, dateOfJoining time.Time) (Employment, error)
	EndEmployment(ctx context.Context, id snowflake.ID, req EndEmploymentRequest) (SeparationEvent, error)
	ListEmploymentsByPersons(ctx context.Context, personIDs []snowflake.ID) (map[snowflake.ID][]Employment, error)
	ListEmploymentsByDealer(ctx context.Context, dealerID snowflake.ID, status Status) ([]Employment, error)

	GetActiveClientLink(ctx context.Context, clientID snowflake.ID) (*ClientLink, error)
	ActiveClientLinks(ctx context.Context, clientIDs []snowflake.ID) (map[snowflake.ID]ClientLink, error)
	CreateClientLink(ctx context.Context, clientID, dealerID snowflake.ID, dateOfOnboarding time.Time) (ClientLink, error)
	DeactivateClientLink(ctx context.Context, id snowflake.ID, reason string) (ClientLink, error)
	ListClientLinksByDealer(ctx context.Context, dealerID snowflake.ID, status Status) ([]ClientLink, error)
}

var (
	ErrInvalidID               = errors.New("invalid_id")
	ErrInvalidDealer           = errors.New("invalid_dealer_id")
	ErrInvalidDateOfJoining    = errors.New("invalid_date_of_joining")
	ErrInvalidSeparationDate   = errors.New("invalid_separation_date")
	ErrInvalidSeparationType   = errors.New("invalid_separation_type")
	ErrInvalidRemarks          = errors.New("invalid_remarks")
	ErrInvalidActor            = errors.New("invalid_actor")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidReason           = errors.New("invalid_offboarding_reason")
	ErrEmploymentNotFound      = errors.New("employment_not_found")
	ErrClientLinkNotFound      = errors.New("client_link_not_found")
	ErrInvalidState            = errors.New("invalid_state")
	ErrActiveAffiliationExists = errors.New("active_affiliation_exists")
)

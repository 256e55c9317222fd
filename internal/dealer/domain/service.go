package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateDealerRequest struct {
	LegalName  string `json:"legalName"`
	OutletName string `json:"outletName"`
	Location   string `json:"location"`
}

type ListDealerRequest struct {
	Status string
	Name   string
}

type Service interface {
	Create(context.Context, CreateDealerRequest) (Dealer, error)
	List(context.Context, ListDealerRequest) ([]Dealer, error)
	GetByID(context.Context, snowflake.ID) (Dealer, error)
	UpdateStatus(context.Context, snowflake.ID, Status) (Dealer, error)
	// Lookup resolves dealers by id; unknown ids are absent from the result.
	Lookup(context.Context, []snowflake.ID) (map[snowflake.ID]Dealer, error)
}

var (
	ErrInvalidLegalName  = errors.New("invalid_legal_name")
	ErrInvalidOutletName = errors.New("invalid_outlet_name")
	ErrInvalidLocation   = errors.New("invalid_location")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
)

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
)

type CreateTransferRequest struct {
	ClientID     snowflake.ID
	FromDealerID snowflake.ID
	ToDealerID   snowflake.ID
	Reason       string
	Actor        string
}

type ListTransferRequest struct {
	pagination.Pagination
	Status   string
	ClientID snowflake.ID
	DealerID snowflake.ID
}

type ListTransferResponse struct {
	pagination.PageInfo
	Transfers []TransferRequest `json:"transfers"`
}

type Service interface {
	Create(context.Context, CreateTransferRequest) (TransferRequest, error)
	// Approve deactivates the source link, opens a link at the destination
	// and marks the transfer APPROVED in one transaction.
	Approve(ctx context.Context, id snowflake.ID, actor string) (TransferRequest, error)
	Reject(ctx context.Context, id snowflake.ID, actor string) (TransferRequest, error)
	Cancel(ctx context.Context, id snowflake.ID, actor string) (TransferRequest, error)
	List(context.Context, ListTransferRequest) (ListTransferResponse, error)
	GetByID(context.Context, snowflake.ID) (TransferRequest, error)
}

var (
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidClient         = errors.New("invalid_client_id")
	ErrInvalidFromDealer     = errors.New("invalid_from_dealer_id")
	ErrInvalidToDealer       = errors.New("invalid_to_dealer_id")
	ErrInvalidActor          = errors.New("invalid_actor")
	ErrInvalidStatus         = errors.New("invalid_status")
	ErrInvalidReason         = errors.New("invalid_reason")
	ErrSameDealer            = errors.New("invalid_same_dealer")
	ErrSourceNotActive       = errors.New("invalid_source_not_active")
	ErrPendingTransferExists = errors.New("pending_transfer_exists")
	ErrNotFound              = errors.New("not_found")
	ErrInvalidState          = errors.New("invalid_state")
)

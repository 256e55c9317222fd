package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
)

type QueryRequest struct {
	pagination.Pagination
	Entity   string
	EntityID string
}

type QueryResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"auditLogs"`
}

// Recorder is the write side handed to the other modules.
type Recorder interface {
	Record(ctx context.Context, actor string, action Action, entity Entity, entityID string, metadata map[string]any) error
}

type Service interface {
	Recorder
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
}

var (
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidEntity    = errors.New("invalid_entity")
	ErrInvalidEntityID  = errors.New("invalid_entity_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
